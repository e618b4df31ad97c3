package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

const orderColumns = `
	id, tracking_code, letter_text, recipient_name, prison_name, city, address_line,
	sender_name, sender_city, status, payment_status, total_amount, currency,
	is_guest, user_id, client_request_id, label,
	pdf_status, pdf_path, pdf_error,
	created_at, status_updated_at, status_updated_by, paid_at, pii_cleaned_at
`

// OrderFilter selects a page of orders, newest first. After is the last order
// of the previous page.
type OrderFilter struct {
	Status string
	After  *entity.Order
	Limit  int32
}

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.TrackingCode,
		nullableText(order.LetterText),
		nullableStringValue(order.RecipientName),
		order.PrisonName,
		order.City,
		nullableText(order.AddressLine),
		nullableStringValue(order.SenderName),
		nullableStringValue(order.SenderCity),
		order.Status,
		order.PaymentStatus,
		order.TotalAmount,
		order.Currency,
		order.IsGuest,
		nullableStringValue(order.UserID),
		nullableStringValue(order.ClientRequestID),
		nullableStringValue(order.Label),
		nullableStringValue(order.PDFStatus),
		nullableStringValue(order.PDFPath),
		nullableStringValue(order.PDFError),
		order.CreatedAt,
		order.StatusUpdatedAt,
		nullableStringValue(order.StatusUpdatedBy),
		nullableTimeValue(order.PaidAt),
		nullableTimeValue(order.PIICleanedAt),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrOrderAlreadyExists
		}
		return err
	}

	return nil
}

// Update rewrites the mutable part of an order. Identity, tracking code and
// creation data never change after insert.
func (r *OrderRepository) Update(ctx context.Context, order *entity.Order) error {
	query := `
		UPDATE orders SET
			letter_text = ?,
			recipient_name = ?,
			address_line = ?,
			sender_name = ?,
			sender_city = ?,
			status = ?,
			payment_status = ?,
			pdf_status = ?,
			pdf_path = ?,
			pdf_error = ?,
			status_updated_at = ?,
			status_updated_by = ?,
			paid_at = ?,
			pii_cleaned_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableText(order.LetterText),
		nullableStringValue(order.RecipientName),
		nullableText(order.AddressLine),
		nullableStringValue(order.SenderName),
		nullableStringValue(order.SenderCity),
		order.Status,
		order.PaymentStatus,
		nullableStringValue(order.PDFStatus),
		nullableStringValue(order.PDFPath),
		nullableStringValue(order.PDFError),
		order.StatusUpdatedAt,
		nullableStringValue(order.StatusUpdatedBy),
		nullableTimeValue(order.PaidAt),
		nullableTimeValue(order.PIICleanedAt),
		order.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

// FindByIDForUpdate locks the order row until the surrounding transaction ends.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`, id)
}

func (r *OrderRepository) FindByTrackingCode(ctx context.Context, code string) (*entity.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE tracking_code = ?`, code)
}

func (r *OrderRepository) FindByClientRequestID(ctx context.Context, clientRequestID string) (*entity.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE client_request_id = ? LIMIT 1`, clientRequestID)
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`

	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 5)

	if strings.TrimSpace(filter.Status) != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.After != nil {
		conditions = append(conditions, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, filter.After.CreatedAt, filter.After.CreatedAt, filter.After.ID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, filter.Limit)

	return r.query(ctx, query, args...)
}

// ListPIICandidates returns orders in one of the given statuses whose last
// status change is older than before and whose PII has not been cleared yet.
func (r *OrderRepository) ListPIICandidates(ctx context.Context, statuses []string, before time.Time, limit int32) ([]*entity.Order, error) {
	if len(statuses) == 0 {
		return []*entity.Order{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN (` + placeholders + `)
		  AND status_updated_at <= ?
		  AND pii_cleaned_at IS NULL
		ORDER BY status_updated_at ASC
		LIMIT ?
	`

	args := make([]interface{}, 0, len(statuses)+2)
	for _, status := range statuses {
		args = append(args, status)
	}
	args = append(args, before, limit)

	return r.query(ctx, query, args...)
}

func (r *OrderRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Order, error) {
	order := &entity.Order{}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, args...), order); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*entity.Order, 0)
	for rows.Next() {
		order := &entity.Order{}
		if err := scanOrder(rows, order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func scanOrder(scan rowScanner, order *entity.Order) error {
	var letterText sql.NullString
	var recipientName sql.NullString
	var addressLine sql.NullString
	var senderName sql.NullString
	var senderCity sql.NullString
	var userID sql.NullString
	var clientRequestID sql.NullString
	var label sql.NullString
	var pdfStatus sql.NullString
	var pdfPath sql.NullString
	var pdfError sql.NullString
	var statusUpdatedBy sql.NullString
	var paidAt sql.NullTime
	var piiCleanedAt sql.NullTime

	err := scan.Scan(
		&order.ID,
		&order.TrackingCode,
		&letterText,
		&recipientName,
		&order.PrisonName,
		&order.City,
		&addressLine,
		&senderName,
		&senderCity,
		&order.Status,
		&order.PaymentStatus,
		&order.TotalAmount,
		&order.Currency,
		&order.IsGuest,
		&userID,
		&clientRequestID,
		&label,
		&pdfStatus,
		&pdfPath,
		&pdfError,
		&order.CreatedAt,
		&order.StatusUpdatedAt,
		&statusUpdatedBy,
		&paidAt,
		&piiCleanedAt,
	)
	if err != nil {
		return err
	}

	order.LetterText = letterText.String
	order.RecipientName = stringPtrFromNull(recipientName)
	order.AddressLine = addressLine.String
	order.SenderName = stringPtrFromNull(senderName)
	order.SenderCity = stringPtrFromNull(senderCity)
	order.UserID = stringPtrFromNull(userID)
	order.ClientRequestID = stringPtrFromNull(clientRequestID)
	order.Label = stringPtrFromNull(label)
	order.PDFStatus = stringPtrFromNull(pdfStatus)
	order.PDFPath = stringPtrFromNull(pdfPath)
	order.PDFError = stringPtrFromNull(pdfError)
	order.StatusUpdatedBy = stringPtrFromNull(statusUpdatedBy)
	order.PaidAt = timePtrFromNull(paidAt)
	order.PIICleanedAt = timePtrFromNull(piiCleanedAt)

	return nil
}

func nullableText(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
