package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/repository"
)

type orderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	FindByIDForUpdate(ctx context.Context, id string) (*entity.Order, error)
	FindByTrackingCode(ctx context.Context, code string) (*entity.Order, error)
	FindByClientRequestID(ctx context.Context, clientRequestID string) (*entity.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]*entity.Order, error)
	ListPIICandidates(ctx context.Context, statuses []string, before time.Time, limit int32) ([]*entity.Order, error)
}

type orderPublicRepository interface {
	Save(ctx context.Context, public *entity.OrderPublic) error
	FindByTrackingCode(ctx context.Context, code string) (*entity.OrderPublic, error)
}

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	FindByToken(ctx context.Context, token string) (*entity.Payment, error)
	FindByTokenForUpdate(ctx context.Context, token string) (*entity.Payment, error)
	FindPendingByOrderID(ctx context.Context, orderID string) (*entity.Payment, error)
}

type historyRepository interface {
	Create(ctx context.Context, entry *entity.StatusHistory) error
}

type auditRepository interface {
	Create(ctx context.Context, entry *entity.AuditLog) error
}

type jobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id string) (*entity.Job, error)
	ListQueued(ctx context.Context, jobType string, limit int32) ([]*entity.Job, error)
}

type userRepository interface {
	FindByUID(ctx context.Context, uid string) (*entity.UserProfile, error)
	Save(ctx context.Context, user *entity.UserProfile) error
}

type Repositories struct {
	Orders  orderRepository
	Public  orderPublicRepository
	Payment paymentRepository
	History historyRepository
	Audit   auditRepository
	Jobs    jobRepository
	Users   userRepository
}

type store interface {
	Repositories() *Repositories
	// InTx runs fn against repositories bound to one transaction. A returned
	// error rolls every write back.
	InTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type SQLStore struct {
	db    *sql.DB
	repos *Repositories
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, repos: newSQLRepositories(db)}
}

func newSQLRepositories(db repository.DBTX) *Repositories {
	return &Repositories{
		Orders:  repository.NewOrderRepository(db),
		Public:  repository.NewOrderPublicRepository(db),
		Payment: repository.NewPaymentRepository(db),
		History: repository.NewStatusHistoryRepository(db),
		Audit:   repository.NewAuditLogRepository(db),
		Jobs:    repository.NewJobRepository(db),
		Users:   repository.NewUserRepository(db),
	}
}

func (s *SQLStore) Repositories() *Repositories {
	return s.repos
}

func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return repository.WithTx(ctx, s.db, nil, func(ctx context.Context, tx repository.DBTX) error {
		return fn(ctx, newSQLRepositories(tx))
	})
}
