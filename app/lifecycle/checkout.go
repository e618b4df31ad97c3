package lifecycle

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
)

type Navigator interface {
	Navigate(ctx context.Context, checkoutURL string) error
}

type PrintNavigator struct {
	W io.Writer
}

func (n PrintNavigator) Navigate(_ context.Context, checkoutURL string) error {
	_, err := fmt.Fprintf(n.W, "Ödemeyi tamamlamak için:\n%s\n", checkoutURL)
	return err
}

type Checkout struct {
	api    API
	nav    Navigator
	logger logrus.FieldLogger
}

func NewCheckout(api API, nav Navigator) *Checkout {
	return &Checkout{
		api:    api,
		nav:    nav,
		logger: factory.NewModuleLogger("lifecycle-checkout"),
	}
}

func (c *Checkout) Start(ctx context.Context, orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", &Error{Kind: ErrNotFound, Message: msgNoReference}
	}

	intent, err := c.api.CreatePaymentIntent(ctx, orderID)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", orderID).Warn("payment intent failed")
		return "", newError(ErrIntentFailed, err, msgUnknownIntent)
	}
	if intent == nil || strings.TrimSpace(intent.CheckoutUrl) == "" {
		return "", &Error{Kind: ErrIntentFailed, Message: msgUnknownIntent}
	}

	if err := c.nav.Navigate(ctx, intent.CheckoutUrl); err != nil {
		return intent.CheckoutUrl, &Error{Kind: ErrHandoff, Message: err.Error(), Err: err}
	}
	return intent.CheckoutUrl, nil
}
