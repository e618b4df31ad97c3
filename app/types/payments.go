package types

import (
	"errors"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

const WebhookSignatureHeader = "X-IYZ-Signature"

type CreatePaymentIntentRequest struct {
	OrderId         string `json:"order_id" validate:"required,max=64"`
	ClientRequestId string `json:"client_request_id,omitempty" validate:"omitempty,max=128"`
}

func (x *CreatePaymentIntentRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *CreatePaymentIntentRequest) GetClientRequestId() string {
	if x != nil {
		return x.ClientRequestId
	}
	return ""
}

func (x *CreatePaymentIntentRequest) Validate() error {
	return validateStruct(x)
}

func NewCreatePaymentIntentRequestFromContext(ctx echo.Context) (*CreatePaymentIntentRequest, error) {
	var body CreatePaymentIntentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.OrderId = strings.TrimSpace(body.OrderId)
	body.ClientRequestId = strings.TrimSpace(body.ClientRequestId)
	return &body, nil
}

type CreatePaymentIntentResponse struct {
	Token       string `json:"token"`
	CheckoutUrl string `json:"checkout_url"`
	Status      string `json:"status"`
}

type PaymentWebhookRequest struct {
	Signature string
	Payload   []byte
}

func (x *PaymentWebhookRequest) GetSignature() string {
	if x != nil {
		return x.Signature
	}
	return ""
}

func (x *PaymentWebhookRequest) GetPayload() []byte {
	if x != nil {
		return x.Payload
	}
	return nil
}

func (x *PaymentWebhookRequest) Validate() error {
	if len(x.GetPayload()) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

// NewPaymentWebhookRequestFromContext keeps the raw body so the signature can
// be checked against the exact bytes the provider sent.
func NewPaymentWebhookRequestFromContext(ctx echo.Context) (*PaymentWebhookRequest, error) {
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}
	return &PaymentWebhookRequest{
		Signature: strings.TrimSpace(ctx.Request().Header.Get(WebhookSignatureHeader)),
		Payload:   rawBody,
	}, nil
}

type PaymentStatusRequest struct {
	OrderId string `json:"order_id" validate:"required,max=64"`
}

func (x *PaymentStatusRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *PaymentStatusRequest) Validate() error {
	return validateStruct(x)
}

func NewPaymentStatusRequestFromContext(ctx echo.Context) (*PaymentStatusRequest, error) {
	return &PaymentStatusRequest{OrderId: strings.TrimSpace(ctx.QueryParam("order_id"))}, nil
}

type PaymentStatusResponse struct {
	OrderId       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}
