package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/auth"
	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/mapper"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type orderService interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*entity.Order, error)
	TrackOrder(ctx context.Context, trackingCode string) (*entity.OrderPublic, error)
}

type OrderController struct {
	orders orderService
	logger logrus.FieldLogger
}

func NewOrderController(orders orderService) *OrderController {
	return &OrderController{
		orders: orders,
		logger: factory.NewModuleLogger("orders-controller"),
	}
}

func (c *OrderController) CreateOrder(ctx echo.Context) error {
	req, err := types.NewCreateOrderRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}
	if user := auth.UserFromContext(ctx); user != nil {
		req.UserId = user.UID
	}

	order, err := c.orders.CreateOrder(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create order failed")
		return writeError(ctx, http.StatusInternalServerError, msgInternalError)
	}

	return ctx.JSON(http.StatusCreated, mapper.OrderToCreateResponse(order))
}

func (c *OrderController) TrackOrder(ctx echo.Context) error {
	req, err := types.NewTrackOrderRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	public, err := c.orders.TrackOrder(ctx.Request().Context(), req.GetTrackingCode())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTrackingNotFound):
			return writeError(ctx, http.StatusNotFound, "Tracking code not found")
		case errors.Is(err, service.ErrInvalidRequest):
			return writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Track order failed")
			return writeError(ctx, http.StatusInternalServerError, msgInternalError)
		}
	}

	return ctx.JSON(http.StatusOK, mapper.OrderPublicToTrackResponse(public))
}
