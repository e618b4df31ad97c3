package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/provider"
	"github.com/vibast-solutions/ms-go-letters/app/repository"
	"github.com/vibast-solutions/ms-go-letters/app/storage"
)

type memData struct {
	orders   map[string]*entity.Order
	public   map[string]*entity.OrderPublic
	payments map[string]*entity.Payment
	history  []*entity.StatusHistory
	audit    []*entity.AuditLog
	jobs     map[string]*entity.Job
	users    map[string]*entity.UserProfile
}

func newMemData() *memData {
	return &memData{
		orders:   map[string]*entity.Order{},
		public:   map[string]*entity.OrderPublic{},
		payments: map[string]*entity.Payment{},
		jobs:     map[string]*entity.Job{},
		users:    map[string]*entity.UserProfile{},
	}
}

func (d *memData) clone() *memData {
	out := newMemData()
	for k, v := range d.orders {
		c := *v
		out.orders[k] = &c
	}
	for k, v := range d.public {
		c := *v
		out.public[k] = &c
	}
	for k, v := range d.payments {
		c := *v
		out.payments[k] = &c
	}
	for k, v := range d.jobs {
		c := *v
		out.jobs[k] = &c
	}
	for k, v := range d.users {
		c := *v
		out.users[k] = &c
	}
	out.history = append(out.history, d.history...)
	out.audit = append(out.audit, d.audit...)
	return out
}

// memStore keeps everything in maps. InTx restores a snapshot when fn fails,
// which is what a rolled back SQL transaction looks like to the service.
type memStore struct {
	data *memData

	failJobCreate error
	txCount       int
}

func newMemStore() *memStore {
	return &memStore{data: newMemData()}
}

func (s *memStore) Repositories() *Repositories {
	return &Repositories{
		Orders:  &memOrders{s: s},
		Public:  &memPublic{s: s},
		Payment: &memPayments{s: s},
		History: &memHistory{s: s},
		Audit:   &memAudit{s: s},
		Jobs:    &memJobs{s: s},
		Users:   &memUsers{s: s},
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	s.txCount++
	snapshot := s.data.clone()
	if err := fn(ctx, s.Repositories()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

type memOrders struct{ s *memStore }

func (r *memOrders) Create(_ context.Context, order *entity.Order) error {
	for _, item := range r.s.data.orders {
		if item.ID == order.ID || item.TrackingCode == order.TrackingCode {
			return repository.ErrOrderAlreadyExists
		}
		if item.ClientRequestID != nil && order.ClientRequestID != nil && *item.ClientRequestID == *order.ClientRequestID {
			return repository.ErrOrderAlreadyExists
		}
	}
	c := *order
	r.s.data.orders[order.ID] = &c
	return nil
}

func (r *memOrders) Update(_ context.Context, order *entity.Order) error {
	if _, ok := r.s.data.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	c := *order
	r.s.data.orders[order.ID] = &c
	return nil
}

func (r *memOrders) FindByID(_ context.Context, id string) (*entity.Order, error) {
	item, ok := r.s.data.orders[id]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *memOrders) FindByTrackingCode(_ context.Context, code string) (*entity.Order, error) {
	for _, item := range r.s.data.orders {
		if item.TrackingCode == code {
			c := *item
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memOrders) FindByClientRequestID(_ context.Context, clientRequestID string) (*entity.Order, error) {
	for _, item := range r.s.data.orders {
		if item.ClientRequestID != nil && *item.ClientRequestID == clientRequestID {
			c := *item
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memOrders) List(_ context.Context, filter repository.OrderFilter) ([]*entity.Order, error) {
	items := make([]*entity.Order, 0)
	for _, item := range r.s.data.orders {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.After != nil {
			older := item.CreatedAt.Before(filter.After.CreatedAt) ||
				(item.CreatedAt.Equal(filter.After.CreatedAt) && item.ID < filter.After.ID)
			if !older {
				continue
			}
		}
		c := *item
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if filter.Limit > 0 && int(filter.Limit) < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (r *memOrders) ListPIICandidates(_ context.Context, statuses []string, before time.Time, limit int32) ([]*entity.Order, error) {
	items := make([]*entity.Order, 0)
	for _, item := range r.s.data.orders {
		eligible := false
		for _, status := range statuses {
			if item.Status == status {
				eligible = true
			}
		}
		if !eligible || item.StatusUpdatedAt.After(before) || item.PIICleanedAt != nil {
			continue
		}
		c := *item
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StatusUpdatedAt.Before(items[j].StatusUpdatedAt) })
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items, nil
}

type memPublic struct{ s *memStore }

func (r *memPublic) Save(_ context.Context, public *entity.OrderPublic) error {
	c := *public
	r.s.data.public[public.TrackingCode] = &c
	return nil
}

func (r *memPublic) FindByTrackingCode(_ context.Context, code string) (*entity.OrderPublic, error) {
	item, ok := r.s.data.public[code]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

type memPayments struct{ s *memStore }

func (r *memPayments) Create(_ context.Context, payment *entity.Payment) error {
	if _, ok := r.s.data.payments[payment.Token]; ok {
		return repository.ErrPaymentAlreadyExists
	}
	c := *payment
	r.s.data.payments[payment.Token] = &c
	return nil
}

func (r *memPayments) Update(_ context.Context, payment *entity.Payment) error {
	if _, ok := r.s.data.payments[payment.Token]; !ok {
		return repository.ErrPaymentNotFound
	}
	c := *payment
	r.s.data.payments[payment.Token] = &c
	return nil
}

func (r *memPayments) FindByToken(_ context.Context, token string) (*entity.Payment, error) {
	item, ok := r.s.data.payments[token]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (r *memPayments) FindByTokenForUpdate(ctx context.Context, token string) (*entity.Payment, error) {
	return r.FindByToken(ctx, token)
}

func (r *memPayments) FindPendingByOrderID(_ context.Context, orderID string) (*entity.Payment, error) {
	var found *entity.Payment
	for _, item := range r.s.data.payments {
		if item.OrderID != orderID || item.Status != entity.PaymentIntentPending {
			continue
		}
		if found == nil || item.CreatedAt.After(found.CreatedAt) {
			c := *item
			found = &c
		}
	}
	return found, nil
}

type memHistory struct{ s *memStore }

func (r *memHistory) Create(_ context.Context, entry *entity.StatusHistory) error {
	c := *entry
	r.s.data.history = append(r.s.data.history, &c)
	return nil
}

type memAudit struct{ s *memStore }

func (r *memAudit) Create(_ context.Context, entry *entity.AuditLog) error {
	c := *entry
	r.s.data.audit = append(r.s.data.audit, &c)
	return nil
}

type memJobs struct{ s *memStore }

func (r *memJobs) Create(_ context.Context, job *entity.Job) error {
	if r.s.failJobCreate != nil {
		return r.s.failJobCreate
	}
	if _, ok := r.s.data.jobs[job.ID]; ok {
		return repository.ErrJobAlreadyExists
	}
	c := *job
	r.s.data.jobs[job.ID] = &c
	return nil
}

func (r *memJobs) Update(_ context.Context, job *entity.Job) error {
	if _, ok := r.s.data.jobs[job.ID]; !ok {
		return repository.ErrJobNotFound
	}
	c := *job
	r.s.data.jobs[job.ID] = &c
	return nil
}

func (r *memJobs) FindByID(_ context.Context, id string) (*entity.Job, error) {
	item, ok := r.s.data.jobs[id]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (r *memJobs) ListQueued(_ context.Context, jobType string, limit int32) ([]*entity.Job, error) {
	items := make([]*entity.Job, 0)
	for _, item := range r.s.data.jobs {
		if item.JobType == jobType && item.Status == entity.JobStatusQueued {
			c := *item
			items = append(items, &c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items, nil
}

type memUsers struct{ s *memStore }

func (r *memUsers) FindByUID(_ context.Context, uid string) (*entity.UserProfile, error) {
	item, ok := r.s.data.users[uid]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (r *memUsers) Save(_ context.Context, user *entity.UserProfile) error {
	c := *user
	r.s.data.users[user.UID] = &c
	return nil
}

type fakeProvider struct {
	checkouts int
	token     string
	createErr error

	event     *provider.WebhookEvent
	verifyErr error
}

func (p *fakeProvider) Name() string {
	return provider.IyzicoName
}

func (p *fakeProvider) CreateCheckout(_ context.Context, input *provider.CheckoutInput) (*provider.CheckoutOutput, error) {
	p.checkouts++
	if p.createErr != nil {
		return nil, p.createErr
	}
	token := p.token
	if token == "" {
		token = "tok_" + input.OrderID
	}
	return &provider.CheckoutOutput{Token: token, CheckoutURL: "https://checkout.test/" + token}, nil
}

func (p *fakeProvider) VerifyAndParseWebhook(_ context.Context, _ []byte, signature string) (*provider.WebhookEvent, error) {
	if signature == "" {
		return nil, provider.ErrMissingSignature
	}
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	if p.event == nil {
		return nil, errors.New("no event configured")
	}
	c := *p.event
	return &c, nil
}

type fakePublisher struct {
	published []*entity.OrderPublic
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, public *entity.OrderPublic) error {
	c := *public
	p.published = append(p.published, &c)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeRenderer struct {
	err error
}

func (r fakeRenderer) Render(order *entity.Order) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + order.TrackingCode), nil
}

type fakeObjects struct {
	puts map[string][]byte
	err  error
}

func (o *fakeObjects) Put(_ context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error) {
	if o.err != nil {
		return storage.PutResult{}, o.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.PutResult{}, err
	}
	if o.puts == nil {
		o.puts = map[string][]byte{}
	}
	o.puts[in.Key] = body
	return storage.PutResult{Key: in.Key, URL: "file://letters/" + in.Key}, nil
}

func (o *fakeObjects) Delete(_ context.Context, key string) error {
	delete(o.puts, key)
	return nil
}
