package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentIntentPending   = "PENDING"
	PaymentIntentSucceeded = "SUCCEEDED"
	PaymentIntentFailed    = "FAILED"
)

type Payment struct {
	Token   string
	OrderID string

	Status   string
	Amount   decimal.Decimal
	Currency string
	Provider string

	CheckoutURL       string
	ProviderPaymentID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Payment) Processed() bool {
	return p.Status == PaymentIntentSucceeded || p.Status == PaymentIntentFailed
}
