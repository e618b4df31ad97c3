package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusCreated       = "CREATED"
	OrderStatusPaid          = "PAID"
	OrderStatusReadyForPrint = "READY_FOR_PRINT"
	OrderStatusPrinted       = "PRINTED"
	OrderStatusReadyForPTT   = "READY_FOR_PTT"
	OrderStatusShipped       = "SHIPPED"
	OrderStatusCancelled     = "CANCELLED"
)

// Order-level payment status. PAYMENT_PENDING is kept on the wire for
// clients that still send or expect the legacy value.
const (
	PaymentStatusPending        = "PENDING"
	PaymentStatusPaymentPending = "PAYMENT_PENDING"
	PaymentStatusPaid           = "PAID"
	PaymentStatusFailed         = "FAILED"
)

const (
	PDFStatusPending    = "PENDING"
	PDFStatusGenerating = "GENERATING"
	PDFStatusReady      = "READY"
	PDFStatusFailed     = "FAILED"
)

type Order struct {
	ID           string
	TrackingCode string

	LetterText    string
	RecipientName *string
	PrisonName    string
	City          string
	AddressLine   string
	SenderName    *string
	SenderCity    *string

	Status        string
	PaymentStatus string

	TotalAmount decimal.Decimal
	Currency    string

	IsGuest         bool
	UserID          *string
	ClientRequestID *string
	Label           *string

	PDFStatus *string
	PDFPath   *string
	PDFError  *string

	CreatedAt       time.Time
	StatusUpdatedAt time.Time
	StatusUpdatedBy *string
	PaidAt          *time.Time
	PIICleanedAt    *time.Time
}

// HasPII reports whether the order still carries letter or addressing data.
func (o *Order) HasPII() bool {
	return o.LetterText != "" || o.AddressLine != "" || o.RecipientName != nil || o.SenderName != nil
}
