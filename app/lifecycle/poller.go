package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
)

type PaymentState string

const (
	StatePending  PaymentState = "PENDING"
	StatePaid     PaymentState = "PAID"
	StateFailed   PaymentState = "FAILED"
	StateTimedOut PaymentState = "TIMED_OUT"
)

const (
	DefaultPollInterval = 4 * time.Second
	DefaultPollTimeout  = 60 * time.Second
)

// NormalizePaymentStatus maps a server payment status onto the client
// states. PAYMENT_PENDING and anything unrecognised count as PENDING.
func NormalizePaymentStatus(raw string) PaymentState {
	switch PaymentState(raw) {
	case StatePaid:
		return StatePaid
	case StateFailed:
		return StateFailed
	default:
		return StatePending
	}
}

func (s PaymentState) Terminal() bool {
	return s == StatePaid || s == StateFailed || s == StateTimedOut
}

type Snapshot struct {
	State   PaymentState
	Polls   int
	Elapsed time.Duration
	Err     error
}

type Outcome struct {
	State     PaymentState
	Reference Reference
	// Next is set for PAID (tracking view) and FAILED (back to checkout).
	Next *Route
	// Options are offered after a timeout.
	Options []Route
	// Err is ErrTimedOut after a timeout or the context error after
	// cancellation.
	Err   error
	Polls int
}

type Poller struct {
	api      API
	clock    Clock
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger
}

func NewPoller(api API, clock Clock, interval, timeout time.Duration) *Poller {
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Poller{
		api:      api,
		clock:    clock,
		interval: interval,
		timeout:  timeout,
		logger:   factory.NewModuleLogger("lifecycle-poller"),
	}
}

var errEmptyStatus = errors.New("empty payment status response")

type pollResult struct {
	state PaymentState
	err   error
}

// Run polls until PAID or FAILED, the timeout or ctx cancellation. Timers
// and any in-flight query are released before it returns.
func (p *Poller) Run(ctx context.Context, ref Reference, observe func(Snapshot)) Outcome {
	if ref.OrderID == "" {
		return Outcome{State: StatePending, Reference: ref, Err: &Error{Kind: ErrNotFound, Message: msgNoReference}}
	}

	logger := p.logger.WithField("order_id", ref.OrderID)
	started := p.clock.Now()

	timeout := p.clock.NewTimer(p.timeout)
	defer timeout.Stop()

	var interval Timer
	stopInterval := func() {
		if interval != nil {
			interval.Stop()
			interval = nil
		}
	}
	defer stopInterval()

	queryCtx, cancelQuery := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancelQuery()

	results := make(chan pollResult, 1)
	query := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := p.api.GetPaymentStatus(queryCtx, ref.OrderID)
			if err == nil && resp == nil {
				err = errEmptyStatus
			}
			if err != nil {
				results <- pollResult{err: err}
				return
			}
			results <- pollResult{state: NormalizePaymentStatus(resp.PaymentStatus)}
		}()
	}

	snap := Snapshot{State: StatePending}
	emit := func() {
		snap.Elapsed = p.clock.Now().Sub(started)
		if observe != nil {
			observe(snap)
		}
	}
	timedOut := func() Outcome {
		stopInterval()
		snap.State = StateTimedOut
		emit()
		logger.WithField("polls", snap.Polls).Info("payment confirmation timed out")
		return p.timedOutOutcome(ref, snap.Polls)
	}

	query()
	for {
		var intervalC <-chan time.Time
		if interval != nil {
			intervalC = interval.C()
		}

		select {
		case <-ctx.Done():
			return Outcome{State: snap.State, Reference: ref, Err: ctx.Err(), Polls: snap.Polls}

		case <-timeout.C():
			return timedOut()

		case <-intervalC:
			interval = nil
			query()

		case res := <-results:
			snap.Polls++
			// A timeout that fired alongside this response wins.
			select {
			case <-timeout.C():
				return timedOut()
			default:
			}

			if res.err != nil {
				snap.Err = newError(ErrQueryFailed, res.err, msgUnreachable)
				logger.WithError(res.err).Debug("payment status query failed")
			} else {
				snap.Err = nil
				snap.State = res.state
			}

			if snap.State.Terminal() {
				emit()
				return p.terminalOutcome(ref, snap)
			}
			interval = p.clock.NewTimer(p.interval)
			emit()
		}
	}
}

func (p *Poller) terminalOutcome(ref Reference, snap Snapshot) Outcome {
	out := Outcome{State: snap.State, Reference: ref, Polls: snap.Polls}
	switch snap.State {
	case StatePaid:
		out.Next = &Route{Kind: RouteTrack, TrackingCode: ref.TrackingCode}
	case StateFailed:
		out.Next = &Route{Kind: RouteCheckout, OrderID: ref.OrderID}
	}
	return out
}

func (p *Poller) timedOutOutcome(ref Reference, polls int) Outcome {
	options := []Route{{Kind: RoutePaymentReturn, OrderID: ref.OrderID}}
	if ref.TrackingCode != "" {
		options = append(options, Route{Kind: RouteTrack, TrackingCode: ref.TrackingCode})
	}
	return Outcome{
		State:     StateTimedOut,
		Reference: ref,
		Options:   options,
		Err:       &Error{Kind: ErrTimedOut, Message: msgTimedOut},
		Polls:     polls,
	}
}
