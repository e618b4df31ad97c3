package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

type OrderPublicRepository struct {
	db DBTX
}

func NewOrderPublicRepository(db DBTX) *OrderPublicRepository {
	return &OrderPublicRepository{db: db}
}

// Save inserts the projection or replaces the existing row for the same
// tracking code.
func (r *OrderPublicRepository) Save(ctx context.Context, public *entity.OrderPublic) error {
	query := `
		INSERT INTO order_public (
			tracking_code, order_id, status, public_step_label,
			recipient_name, prison_name, label, created_at, status_updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			public_step_label = VALUES(public_step_label),
			recipient_name = VALUES(recipient_name),
			prison_name = VALUES(prison_name),
			label = VALUES(label),
			status_updated_at = VALUES(status_updated_at)
	`

	_, err := r.db.ExecContext(ctx, query,
		public.TrackingCode,
		public.OrderID,
		public.Status,
		public.PublicStepLabel,
		nullableStringValue(public.RecipientName),
		nullableStringValue(public.PrisonName),
		nullableStringValue(public.Label),
		public.CreatedAt,
		public.StatusUpdatedAt,
	)
	return err
}

func (r *OrderPublicRepository) FindByTrackingCode(ctx context.Context, code string) (*entity.OrderPublic, error) {
	query := `
		SELECT tracking_code, order_id, status, public_step_label,
			recipient_name, prison_name, label, created_at, status_updated_at
		FROM order_public
		WHERE tracking_code = ?
	`

	var recipientName sql.NullString
	var prisonName sql.NullString
	var label sql.NullString

	public := &entity.OrderPublic{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&public.TrackingCode,
		&public.OrderID,
		&public.Status,
		&public.PublicStepLabel,
		&recipientName,
		&prisonName,
		&label,
		&public.CreatedAt,
		&public.StatusUpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	public.RecipientName = stringPtrFromNull(recipientName)
	public.PrisonName = stringPtrFromNull(prisonName)
	public.Label = stringPtrFromNull(label)
	return public, nil
}
