package lifecycle

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-letters/app/factory"
)

type Reference struct {
	OrderID      string
	TrackingCode string
}

// ResolveReference picks the order to poll. An order id from the URL wins;
// the stored record only contributes its tracking code then. Without a URL
// id the stored record is used as is. With neither, ErrNotFound.
func ResolveReference(ctx context.Context, urlOrderID string, store ReferenceStore) (Reference, error) {
	urlOrderID = strings.TrimSpace(urlOrderID)

	var storedID, storedCode string
	if store != nil {
		stored, err := store.LastOrder(ctx)
		if err != nil {
			factory.NewModuleLogger("lifecycle-reference").WithError(err).Warn("failed to read stored order reference")
		} else if stored != nil {
			storedID, storedCode = stored.OrderID, stored.TrackingCode
		}
	}

	if urlOrderID != "" {
		return Reference{OrderID: urlOrderID, TrackingCode: storedCode}, nil
	}
	if storedID != "" {
		return Reference{OrderID: storedID, TrackingCode: storedCode}, nil
	}
	return Reference{}, &Error{Kind: ErrNotFound, Message: msgNoReference}
}
