package types

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type CreateOrderRequest struct {
	ClientRequestId string `json:"client_request_id,omitempty" validate:"omitempty,max=128"`
	LetterText      string `json:"letter_text" validate:"min=10,max=20000"`
	RecipientName   string `json:"recipient_name,omitempty" validate:"omitempty,max=100"`
	PrisonName      string `json:"prison_name" validate:"min=3,max=150"`
	City            string `json:"city" validate:"min=2,max=100"`
	AddressLine     string `json:"address_line" validate:"min=5,max=150"`
	SenderName      string `json:"sender_name,omitempty" validate:"omitempty,max=100"`
	SenderCity      string `json:"sender_city,omitempty" validate:"omitempty,max=100"`

	UserId string `json:"-"`
}

func (x *CreateOrderRequest) GetClientRequestId() string {
	if x != nil {
		return x.ClientRequestId
	}
	return ""
}

func (x *CreateOrderRequest) GetLetterText() string {
	if x != nil {
		return x.LetterText
	}
	return ""
}

func (x *CreateOrderRequest) GetRecipientName() string {
	if x != nil {
		return x.RecipientName
	}
	return ""
}

func (x *CreateOrderRequest) GetPrisonName() string {
	if x != nil {
		return x.PrisonName
	}
	return ""
}

func (x *CreateOrderRequest) GetCity() string {
	if x != nil {
		return x.City
	}
	return ""
}

func (x *CreateOrderRequest) GetAddressLine() string {
	if x != nil {
		return x.AddressLine
	}
	return ""
}

func (x *CreateOrderRequest) GetSenderName() string {
	if x != nil {
		return x.SenderName
	}
	return ""
}

func (x *CreateOrderRequest) GetSenderCity() string {
	if x != nil {
		return x.SenderCity
	}
	return ""
}

func (x *CreateOrderRequest) GetUserId() string {
	if x != nil {
		return x.UserId
	}
	return ""
}

// Normalize trims every field. Letter text keeps its inner layout.
func (x *CreateOrderRequest) Normalize() {
	x.ClientRequestId = strings.TrimSpace(x.ClientRequestId)
	x.LetterText = strings.TrimSpace(x.LetterText)
	x.RecipientName = strings.TrimSpace(x.RecipientName)
	x.PrisonName = strings.TrimSpace(x.PrisonName)
	x.City = strings.TrimSpace(x.City)
	x.AddressLine = strings.TrimSpace(x.AddressLine)
	x.SenderName = strings.TrimSpace(x.SenderName)
	x.SenderCity = strings.TrimSpace(x.SenderCity)
}

// Validate applies the letter submission rules. Lengths are counted in
// characters. A failed validation returns FieldErrors.
func (x *CreateOrderRequest) Validate() error {
	return validateStruct(x)
}

func NewCreateOrderRequestFromContext(ctx echo.Context) (*CreateOrderRequest, error) {
	var body CreateOrderRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Normalize()
	if body.ClientRequestId == "" {
		body.ClientRequestId = strings.TrimSpace(ctx.Request().Header.Get("Idempotency-Key"))
	}
	return &body, nil
}

type CreateOrderResponse struct {
	OrderId      string `json:"order_id"`
	TrackingCode string `json:"tracking_code"`
	Status       string `json:"status"`
}

type TrackOrderRequest struct {
	TrackingCode string `json:"tracking_code" validate:"required,max=16"`
}

func (x *TrackOrderRequest) GetTrackingCode() string {
	if x != nil {
		return x.TrackingCode
	}
	return ""
}

func (x *TrackOrderRequest) Validate() error {
	return validateStruct(x)
}

func NewTrackOrderRequestFromContext(ctx echo.Context) (*TrackOrderRequest, error) {
	return &TrackOrderRequest{TrackingCode: NormalizeTrackingCode(ctx.Param("tracking_code"))}, nil
}

// NormalizeTrackingCode trims surrounding whitespace and upper-cases the code.
func NormalizeTrackingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type TrackOrderResponse struct {
	TrackingCode    string  `json:"tracking_code"`
	Status          string  `json:"status"`
	PublicStepLabel string  `json:"public_step_label"`
	RecipientName   *string `json:"recipient_name,omitempty"`
	PrisonName      *string `json:"prison_name,omitempty"`
	Label           *string `json:"label,omitempty"`
	CreatedAt       string  `json:"created_at"`
}
