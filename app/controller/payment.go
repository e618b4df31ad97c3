package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/mapper"
	"github.com/vibast-solutions/ms-go-letters/app/provider"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type paymentService interface {
	CreatePaymentIntent(ctx context.Context, req service.CreatePaymentIntentRequest) (*entity.Payment, error)
	HandlePaymentWebhook(ctx context.Context, req service.PaymentWebhookRequest) (*service.WebhookResult, error)
	GetPaymentStatus(ctx context.Context, orderID string) (*entity.Order, error)
}

type PaymentController struct {
	payments paymentService
	logger   logrus.FieldLogger
}

func NewPaymentController(payments paymentService) *PaymentController {
	return &PaymentController{
		payments: payments,
		logger:   factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) CreateIntent(ctx echo.Context) error {
	req, err := types.NewCreatePaymentIntentRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	payment, err := c.payments.CreatePaymentIntent(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return writeError(ctx, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderAlreadyPaid):
			return writeError(ctx, http.StatusBadRequest, "Order is already paid")
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrProviderUnsupported):
			return writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create payment intent failed")
			return writeError(ctx, http.StatusBadGateway, "payment provider unavailable")
		}
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentToIntentResponse(payment))
}

func (c *PaymentController) Webhook(ctx echo.Context) error {
	req, err := types.NewPaymentWebhookRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if req.GetSignature() == "" {
		return writeError(ctx, http.StatusUnauthorized, "Missing signature header")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.payments.HandlePaymentWebhook(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrMissingSignature):
			return writeError(ctx, http.StatusUnauthorized, "Missing signature header")
		case errors.Is(err, service.ErrWebhookRejected):
			return writeError(ctx, http.StatusUnauthorized, "Invalid webhook signature")
		case errors.Is(err, service.ErrInvalidRequest):
			return writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle payment webhook failed")
			return writeError(ctx, http.StatusInternalServerError, msgInternalError)
		}
	}

	logger := factory.LoggerWithContext(c.logger, ctx).WithField("token", result.Token)
	if !result.Processed {
		logger.Info("Webhook ignored")
	} else {
		logger.WithField("order_id", result.OrderID).WithField("succeeded", result.Succeeded).Info("Webhook applied")
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Webhook processed successfully"})
}

func (c *PaymentController) Status(ctx echo.Context) error {
	req, err := types.NewPaymentStatusRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	order, err := c.payments.GetPaymentStatus(ctx.Request().Context(), req.GetOrderId())
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return writeError(ctx, http.StatusNotFound, "Order not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment status failed")
		return writeError(ctx, http.StatusInternalServerError, msgInternalError)
	}

	return ctx.JSON(http.StatusOK, mapper.OrderToPaymentStatusResponse(order))
}
