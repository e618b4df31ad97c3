package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

type StatusHistoryRepository struct {
	db DBTX
}

func NewStatusHistoryRepository(db DBTX) *StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

func (r *StatusHistoryRepository) Create(ctx context.Context, entry *entity.StatusHistory) error {
	query := `
		INSERT INTO order_status_history (
			id, order_id, from_status, to_status, actor, source, note, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.OrderID,
		nullableStringValue(entry.FromStatus),
		entry.ToStatus,
		entry.Actor,
		entry.Source,
		nullableStringValue(entry.Note),
		entry.CreatedAt,
	)
	return err
}

func (r *StatusHistoryRepository) ListByOrderID(ctx context.Context, orderID string) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, order_id, from_status, to_status, actor, source, note, created_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*entity.StatusHistory, 0)
	for rows.Next() {
		var fromStatus sql.NullString
		var note sql.NullString

		entry := &entity.StatusHistory{}
		if err := rows.Scan(
			&entry.ID,
			&entry.OrderID,
			&fromStatus,
			&entry.ToStatus,
			&entry.Actor,
			&entry.Source,
			&note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.FromStatus = stringPtrFromNull(fromStatus)
		entry.Note = stringPtrFromNull(note)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
