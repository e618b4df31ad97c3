package types

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultAdminListLimit = int32(20)
	MaxAdminListLimit     = int32(100)
)

type ListOrdersRequest struct {
	Status string
	Limit  int32
	Cursor string
}

func (x *ListOrdersRequest) GetStatus() string {
	if x != nil {
		return x.Status
	}
	return ""
}

func (x *ListOrdersRequest) GetLimit() int32 {
	if x != nil {
		return x.Limit
	}
	return 0
}

func (x *ListOrdersRequest) GetCursor() string {
	if x != nil {
		return x.Cursor
	}
	return ""
}

func (x *ListOrdersRequest) Validate() error {
	if x.Limit == 0 {
		x.Limit = DefaultAdminListLimit
	}
	if x.GetLimit() < 1 || x.GetLimit() > MaxAdminListLimit {
		return errors.New("limit must be between 1 and 100")
	}
	return nil
}

func NewListOrdersRequestFromContext(ctx echo.Context) (*ListOrdersRequest, error) {
	req := &ListOrdersRequest{
		Status: strings.ToUpper(strings.TrimSpace(ctx.QueryParam("status"))),
		Cursor: strings.TrimSpace(ctx.QueryParam("cursor")),
		Limit:  DefaultAdminListLimit,
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	return req, nil
}

type AdminOrderItem struct {
	OrderId          string  `json:"order_id"`
	TrackingCode     string  `json:"tracking_code"`
	CreatedAt        string  `json:"created_at"`
	Status           string  `json:"status"`
	PaymentStatus    string  `json:"payment_status"`
	StatusUpdatedAt  string  `json:"status_updated_at"`
	TotalAmount      string  `json:"total_amount"`
	Currency         string  `json:"currency"`
	IsGuest          bool    `json:"is_guest"`
	UserId           *string `json:"user_id,omitempty"`
	RecipientSummary *string `json:"recipient_summary,omitempty"`
	PdfStatus        *string `json:"pdf_status,omitempty"`
}

type ListOrdersResponse struct {
	Items      []*AdminOrderItem `json:"items"`
	NextCursor *string           `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

type UpdateOrderStatusRequest struct {
	OrderId            string `json:"-"`
	ToStatus           string `json:"to_status" validate:"required"`
	ExpectedFromStatus string `json:"expected_from_status" validate:"required"`
	Note               string `json:"note,omitempty" validate:"omitempty,max=1000"`
	Label              string `json:"label,omitempty" validate:"omitempty,max=64"`

	Actor string `json:"-"`
}

func (x *UpdateOrderStatusRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *UpdateOrderStatusRequest) GetToStatus() string {
	if x != nil {
		return x.ToStatus
	}
	return ""
}

func (x *UpdateOrderStatusRequest) GetExpectedFromStatus() string {
	if x != nil {
		return x.ExpectedFromStatus
	}
	return ""
}

func (x *UpdateOrderStatusRequest) GetNote() string {
	if x != nil {
		return x.Note
	}
	return ""
}

func (x *UpdateOrderStatusRequest) GetLabel() string {
	if x != nil {
		return x.Label
	}
	return ""
}

func (x *UpdateOrderStatusRequest) GetActor() string {
	if x != nil {
		return x.Actor
	}
	return ""
}

func (x *UpdateOrderStatusRequest) Validate() error {
	if strings.TrimSpace(x.GetOrderId()) == "" {
		return errors.New("order id is required")
	}
	return validateStruct(x)
}

func NewUpdateOrderStatusRequestFromContext(ctx echo.Context) (*UpdateOrderStatusRequest, error) {
	var body UpdateOrderStatusRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.OrderId = strings.TrimSpace(ctx.Param("id"))
	body.ToStatus = strings.ToUpper(strings.TrimSpace(body.ToStatus))
	body.ExpectedFromStatus = strings.ToUpper(strings.TrimSpace(body.ExpectedFromStatus))
	body.Note = strings.TrimSpace(body.Note)
	body.Label = strings.TrimSpace(body.Label)
	return &body, nil
}

type UpdateOrderStatusResponse struct {
	Message        string `json:"message"`
	OrderId        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

type StatusMismatchResponse struct {
	Code          string `json:"code"`
	CurrentStatus string `json:"current_status"`
	Message       string `json:"message"`
}
