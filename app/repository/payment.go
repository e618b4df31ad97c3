package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

var ErrPaymentAlreadyExists = errors.New("payment already exists")

const paymentColumns = `
	token, order_id, status, amount, currency, provider,
	checkout_url, provider_payment_id, created_at, updated_at
`

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.Token,
		payment.OrderID,
		payment.Status,
		payment.Amount,
		payment.Currency,
		payment.Provider,
		payment.CheckoutURL,
		nullableStringValue(payment.ProviderPaymentID),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments SET
			status = ?,
			provider_payment_id = ?,
			updated_at = ?
		WHERE token = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.Status,
		nullableStringValue(payment.ProviderPaymentID),
		payment.UpdatedAt,
		payment.Token,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

func (r *PaymentRepository) FindByToken(ctx context.Context, token string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE token = ?`
	return r.findOne(ctx, query, token)
}

// FindByTokenForUpdate locks the payment row until the surrounding
// transaction ends.
func (r *PaymentRepository) FindByTokenForUpdate(ctx context.Context, token string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE token = ? FOR UPDATE`
	return r.findOne(ctx, query, token)
}

func (r *PaymentRepository) FindPendingByOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE order_id = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, orderID, entity.PaymentIntentPending)
}

func (r *PaymentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Payment, error) {
	var providerPaymentID sql.NullString

	payment := &entity.Payment{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&payment.Token,
		&payment.OrderID,
		&payment.Status,
		&payment.Amount,
		&payment.Currency,
		&payment.Provider,
		&payment.CheckoutURL,
		&providerPaymentID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payment.ProviderPaymentID = stringPtrFromNull(providerPaymentID)
	return payment, nil
}
