package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-letters/app/clientstore"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type fakeAPI struct {
	mu sync.Mutex

	createCalls int
	createReqs  []types.CreateOrderRequest
	createResp  *types.CreateOrderResponse
	createErr   error

	intentCalls int
	intentResp  *types.CreatePaymentIntentResponse
	intentErr   error

	statusCalls int
	// statusFn answers the n-th (1-based) status query.
	statusFn func(ctx context.Context, n int) (*types.PaymentStatusResponse, error)

	trackCodes []string
	trackResp  *types.TrackOrderResponse
	trackErr   error
}

func (f *fakeAPI) CreateOrder(_ context.Context, req *types.CreateOrderRequest) (*types.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.createReqs = append(f.createReqs, *req)
	return f.createResp, f.createErr
}

func (f *fakeAPI) CreatePaymentIntent(_ context.Context, _ string) (*types.CreatePaymentIntentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intentCalls++
	return f.intentResp, f.intentErr
}

func (f *fakeAPI) GetPaymentStatus(ctx context.Context, _ string) (*types.PaymentStatusResponse, error) {
	f.mu.Lock()
	f.statusCalls++
	n := f.statusCalls
	fn := f.statusFn
	f.mu.Unlock()
	if fn == nil {
		return &types.PaymentStatusResponse{PaymentStatus: "PENDING"}, nil
	}
	return fn(ctx, n)
}

func (f *fakeAPI) TrackOrder(_ context.Context, code string) (*types.TrackOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackCodes = append(f.trackCodes, code)
	return f.trackResp, f.trackErr
}

func (f *fakeAPI) statusCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func statusSequence(statuses ...string) func(context.Context, int) (*types.PaymentStatusResponse, error) {
	return func(_ context.Context, n int) (*types.PaymentStatusResponse, error) {
		idx := n - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		return &types.PaymentStatusResponse{PaymentStatus: statuses[idx]}, nil
	}
}

type fakeStore struct {
	ref     *clientstore.OrderReference
	saves   int
	saveErr error
	readErr error
}

func (s *fakeStore) SaveLastOrder(_ context.Context, ref clientstore.OrderReference) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ref = &ref
	return nil
}

func (s *fakeStore) LastOrder(_ context.Context) (*clientstore.OrderReference, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.ref, nil
}

type fakeNavigator struct {
	urls []string
	err  error
}

func (n *fakeNavigator) Navigate(_ context.Context, url string) error {
	n.urls = append(n.urls, url)
	return n.err
}

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock    *manualClock
	deadline time.Time
	ch       chan time.Time
	fired    bool
	stopped  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)

	due := make([]*manualTimer, 0)
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.deadline.After(c.now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, t := range due {
		t.fired = true
		t.ch <- c.now
	}
}

// pending counts timers that are neither fired nor stopped.
func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (t *manualTimer) C() <-chan time.Time {
	return t.ch
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.fired && !t.stopped
	t.stopped = true
	return active
}

var errBoom = errors.New("boom")
