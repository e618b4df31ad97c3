package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/clientstore"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type Submission struct {
	OrderID      string
	TrackingCode string
	Next         Route
}

type Composer struct {
	api    API
	store  ReferenceStore
	logger logrus.FieldLogger
}

func NewComposer(api API, store ReferenceStore) *Composer {
	return &Composer{
		api:    api,
		store:  store,
		logger: factory.NewModuleLogger("lifecycle-composer"),
	}
}

func (c *Composer) Submit(ctx context.Context, draft *types.CreateOrderRequest) (*Submission, error) {
	if draft == nil {
		draft = &types.CreateOrderRequest{}
	}
	req := *draft
	req.Normalize()

	if err := req.Validate(); err != nil {
		var fields types.FieldErrors
		if errors.As(err, &fields) {
			return nil, &Error{Kind: ErrValidation, Message: fields.Error(), Fields: fields, Err: err}
		}
		return nil, &Error{Kind: ErrValidation, Message: err.Error(), Err: err}
	}
	if req.ClientRequestId == "" {
		req.ClientRequestId = uuid.NewString()
	}

	resp, err := c.api.CreateOrder(ctx, &req)
	if err != nil {
		c.logger.WithError(err).Warn("order creation failed")
		return nil, newError(ErrCreateFailed, err, msgUnknownCreate)
	}
	if resp == nil || strings.TrimSpace(resp.OrderId) == "" {
		return nil, &Error{Kind: ErrCreateFailed, Message: msgUnknownCreate}
	}

	ref := clientstore.OrderReference{OrderID: resp.OrderId, TrackingCode: resp.TrackingCode}
	if err := c.store.SaveLastOrder(ctx, ref); err != nil {
		// Not fatal: the order already exists server side.
		c.logger.WithError(err).WithField("order_id", resp.OrderId).Warn("failed to persist order reference")
	}

	return &Submission{
		OrderID:      resp.OrderId,
		TrackingCode: resp.TrackingCode,
		Next:         Route{Kind: RouteCheckout, OrderID: resp.OrderId, TrackingCode: resp.TrackingCode},
	}, nil
}
