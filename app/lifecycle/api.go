package lifecycle

import (
	"context"

	"github.com/vibast-solutions/ms-go-letters/app/clientstore"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type API interface {
	CreateOrder(ctx context.Context, req *types.CreateOrderRequest) (*types.CreateOrderResponse, error)
	CreatePaymentIntent(ctx context.Context, orderID string) (*types.CreatePaymentIntentResponse, error)
	GetPaymentStatus(ctx context.Context, orderID string) (*types.PaymentStatusResponse, error)
	TrackOrder(ctx context.Context, trackingCode string) (*types.TrackOrderResponse, error)
}

type ReferenceStore interface {
	SaveLastOrder(ctx context.Context, ref clientstore.OrderReference) error
	LastOrder(ctx context.Context) (*clientstore.OrderReference, error)
}
