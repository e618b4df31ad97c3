package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

type AuditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *entity.AuditLog) error {
	metadataJSON, err := serializeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO admin_audit_logs (id, action, order_id, actor, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Action,
		nullableStringValue(entry.OrderID),
		entry.Actor,
		metadataJSON,
		entry.CreatedAt,
	)
	return err
}
