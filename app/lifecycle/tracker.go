package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-letters/app/client"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type TrackState string

const (
	TrackNotAttempted TrackState = "NOT_ATTEMPTED"
	TrackFailed       TrackState = "FAILED"
	TrackSucceeded    TrackState = "SUCCEEDED"
)

type TrackResult struct {
	State        TrackState
	TrackingCode string
	Order        *types.TrackOrderResponse
	Err          error
}

type Tracker struct {
	api API
}

func NewTracker(api API) *Tracker {
	return &Tracker{api: api}
}

func (t *Tracker) Lookup(ctx context.Context, code string) TrackResult {
	code = strings.TrimSpace(code)
	if code == "" {
		return TrackResult{State: TrackNotAttempted}
	}

	order, err := t.api.TrackOrder(ctx, code)
	if err != nil {
		kind := ErrTrackFailed
		if errors.Is(err, client.ErrNotFound) {
			kind = ErrNotFound
		}
		return TrackResult{State: TrackFailed, TrackingCode: code, Err: newError(kind, err, msgInvalidCode)}
	}
	if order == nil {
		return TrackResult{State: TrackFailed, TrackingCode: code, Err: &Error{Kind: ErrNotFound, Message: msgInvalidCode}}
	}
	return TrackResult{State: TrackSucceeded, TrackingCode: code, Order: order}
}
