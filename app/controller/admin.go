package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/auth"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/mapper"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

const codeStatusMismatch = "STATUS_MISMATCH"

type adminService interface {
	ListOrders(ctx context.Context, req service.ListOrdersRequest) (*service.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, req service.UpdateOrderStatusRequest) (*service.StatusChange, error)
}

type AdminController struct {
	admin  adminService
	logger logrus.FieldLogger
}

func NewAdminController(admin adminService) *AdminController {
	return &AdminController{
		admin:  admin,
		logger: factory.NewModuleLogger("admin-controller"),
	}
}

func (c *AdminController) ListOrders(ctx echo.Context) error {
	req, err := types.NewListOrdersRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	page, err := c.admin.ListOrders(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return writeError(ctx, http.StatusBadRequest, "unknown order status")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List orders failed")
		return writeError(ctx, http.StatusInternalServerError, msgInternalError)
	}

	return ctx.JSON(http.StatusOK, &types.ListOrdersResponse{
		Items:      mapper.OrdersToAdminItems(page.Items),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

func (c *AdminController) UpdateOrderStatus(ctx echo.Context) error {
	req, err := types.NewUpdateOrderStatusRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}
	if user := auth.UserFromContext(ctx); user != nil {
		req.Actor = user.UID
	}

	change, err := c.admin.UpdateOrderStatus(ctx.Request().Context(), req)
	if err != nil {
		var mismatch *service.StatusMismatchError
		switch {
		case errors.As(err, &mismatch):
			return ctx.JSON(http.StatusConflict, &types.StatusMismatchResponse{
				Code:          codeStatusMismatch,
				CurrentStatus: mismatch.Current,
				Message:       mismatch.Error(),
			})
		case errors.Is(err, service.ErrOrderNotFound):
			return writeError(ctx, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrInvalidRequest):
			return writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Update order status failed")
			return writeError(ctx, http.StatusInternalServerError, msgInternalError)
		}
	}

	return ctx.JSON(http.StatusOK, &types.UpdateOrderStatusResponse{
		Message:        "Status updated successfully",
		OrderId:        change.OrderID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
	})
}
