package provider

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type CheckoutInput struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string

	BuyerName string
	Address   string
	City      string
}

type CheckoutOutput struct {
	Token       string
	CheckoutURL string
}

// WebhookEvent is a verified provider notification about one checkout token.
type WebhookEvent struct {
	Token             string
	ConversationID    string
	ProviderPaymentID *string
	ProviderStatus    string
	Succeeded         bool
}

type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error)
	VerifyAndParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}
