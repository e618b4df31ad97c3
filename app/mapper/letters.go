package mapper

import (
	"time"
	"unicode/utf8"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

const recipientSummaryLength = 30

func OrderToCreateResponse(item *entity.Order) *types.CreateOrderResponse {
	if item == nil {
		return nil
	}

	return &types.CreateOrderResponse{
		OrderId:      item.ID,
		TrackingCode: item.TrackingCode,
		Status:       item.Status,
	}
}

// OrderPublicToTrackResponse maps the projection to the public tracking view.
// The internal order id is never part of it.
func OrderPublicToTrackResponse(item *entity.OrderPublic) *types.TrackOrderResponse {
	if item == nil {
		return nil
	}

	return &types.TrackOrderResponse{
		TrackingCode:    item.TrackingCode,
		Status:          item.Status,
		PublicStepLabel: item.PublicStepLabel,
		RecipientName:   item.RecipientName,
		PrisonName:      item.PrisonName,
		Label:           item.Label,
		CreatedAt:       formatTime(item.CreatedAt),
	}
}

func OrderToAdminItem(item *entity.Order) *types.AdminOrderItem {
	if item == nil {
		return nil
	}

	return &types.AdminOrderItem{
		OrderId:          item.ID,
		TrackingCode:     item.TrackingCode,
		CreatedAt:        formatTime(item.CreatedAt),
		Status:           item.Status,
		PaymentStatus:    item.PaymentStatus,
		StatusUpdatedAt:  formatTime(item.StatusUpdatedAt),
		TotalAmount:      item.TotalAmount.StringFixed(2),
		Currency:         item.Currency,
		IsGuest:          item.IsGuest,
		UserId:           item.UserID,
		RecipientSummary: summarize(item.AddressLine),
		PdfStatus:        item.PDFStatus,
	}
}

func OrdersToAdminItems(items []*entity.Order) []*types.AdminOrderItem {
	result := make([]*types.AdminOrderItem, 0, len(items))
	for _, item := range items {
		result = append(result, OrderToAdminItem(item))
	}
	return result
}

func PaymentToIntentResponse(item *entity.Payment) *types.CreatePaymentIntentResponse {
	if item == nil {
		return nil
	}

	return &types.CreatePaymentIntentResponse{
		Token:       item.Token,
		CheckoutUrl: item.CheckoutURL,
		Status:      "success",
	}
}

func OrderToPaymentStatusResponse(item *entity.Order) *types.PaymentStatusResponse {
	if item == nil {
		return nil
	}

	return &types.PaymentStatusResponse{
		OrderId:       item.ID,
		PaymentStatus: item.PaymentStatus,
	}
}

func UserProfileToResponse(item *entity.UserProfile) *types.UserProfileResponse {
	if item == nil {
		return nil
	}

	return &types.UserProfileResponse{
		UID:         item.UID,
		DisplayName: item.DisplayName,
		Email:       item.Email,
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

// summarize shortens an address for list views. PII-cleaned orders have none.
func summarize(v string) *string {
	if v == "" {
		return nil
	}
	if utf8.RuneCountInString(v) <= recipientSummaryLength {
		return &v
	}
	short := string([]rune(v)[:recipientSummaryLength]) + "..."
	return &short
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
