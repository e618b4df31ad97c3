package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

const jobColumns = `
	id, job_type, order_id, tracking_code, status, attempt,
	requested_by, last_error, created_at, updated_at
`

type JobRepository struct {
	db DBTX
}

func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.JobType,
		nullableStringValue(job.OrderID),
		nullableStringValue(job.TrackingCode),
		job.Status,
		job.Attempt,
		job.RequestedBy,
		nullableStringValue(job.LastError),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrJobAlreadyExists
		}
		return err
	}

	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE jobs SET
			status = ?,
			attempt = ?,
			last_error = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		job.Status,
		job.Attempt,
		nullableStringValue(job.LastError),
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}

	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (*entity.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`

	job := &entity.Job{}
	if err := scanJob(r.db.QueryRowContext(ctx, query, id), job); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return job, nil
}

func (r *JobRepository) ListQueued(ctx context.Context, jobType string, limit int32) ([]*entity.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE job_type = ? AND status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, jobType, entity.JobStatusQueued, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*entity.Job, 0)
	for rows.Next() {
		job := &entity.Job{}
		if err := scanJob(rows, job); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func scanJob(scan rowScanner, job *entity.Job) error {
	var orderID sql.NullString
	var trackingCode sql.NullString
	var lastError sql.NullString

	err := scan.Scan(
		&job.ID,
		&job.JobType,
		&orderID,
		&trackingCode,
		&job.Status,
		&job.Attempt,
		&job.RequestedBy,
		&lastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return err
	}

	job.OrderID = stringPtrFromNull(orderID)
	job.TrackingCode = stringPtrFromNull(trackingCode)
	job.LastError = stringPtrFromNull(lastError)
	return nil
}
