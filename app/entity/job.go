package entity

import "time"

const (
	JobTypePDFGenerate = "pdf_generate"
	JobTypePIICleanup  = "pii_cleanup"
)

const (
	JobStatusQueued    = "QUEUED"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
)

type Job struct {
	ID           string
	JobType      string
	OrderID      *string
	TrackingCode *string
	Status       string
	Attempt      int32
	RequestedBy  string
	LastError    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
