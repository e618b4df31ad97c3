package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

const piiSchedulerRequester = "system:scheduler"

type pdfJobInput struct {
	job *entity.Job
}

func (x pdfJobInput) GetJobId() string        { return x.job.ID }
func (x pdfJobInput) GetOrderId() string      { return stringValue(x.job.OrderID) }
func (x pdfJobInput) GetTrackingCode() string { return stringValue(x.job.TrackingCode) }
func (x pdfJobInput) GetRequestedBy() string  { return x.job.RequestedBy }
func (x pdfJobInput) GetAttempt() int32       { return x.job.Attempt }

type piiJobInput struct {
	jobID      string
	cutoffDays int32
}

func (x piiJobInput) GetJobId() string       { return x.jobID }
func (x piiJobInput) GetCutoffDays() int32   { return x.cutoffDays }
func (x piiJobInput) GetDryRun() bool        { return false }
func (x piiJobInput) GetRequestedBy() string { return piiSchedulerRequester }

// RunPDFDispatchBatch renders the letters of queued PDF jobs. Jobs locked by
// another worker are left for the next run.
func (s *LetterService) RunPDFDispatchBatch(ctx context.Context) error {
	jobs, err := s.store.Repositories().Jobs.ListQueued(ctx, entity.JobTypePDFGenerate, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, job := range jobs {
		if job == nil || job.OrderID == nil {
			continue
		}
		if _, err := s.GeneratePDF(ctx, pdfJobInput{job: job}); err != nil {
			if errors.Is(err, ErrPDFLocked) {
				continue
			}
			firstErr = keepFirstErr(firstErr, fmt.Errorf("job %s: %w", job.ID, err))
		}
	}

	return firstErr
}

func (s *LetterService) RunPIICleanupBatch(ctx context.Context) error {
	suffix, err := randomHex(4)
	if err != nil {
		return err
	}

	cutoffDays := int32(s.jobsCfg.PIICutoffDays)
	if cutoffDays <= 0 {
		cutoffDays = 30
	}

	outcome, err := s.CleanupPII(ctx, piiJobInput{
		jobID:      fmt.Sprintf("pii_%s_%s", s.now().Format("20060102T150405"), suffix),
		cutoffDays: cutoffDays,
	})
	if err != nil {
		return err
	}

	s.logger.WithField("job_id", outcome.JobID).WithField("cleaned_count", outcome.Count).Info(outcome.Message)
	return nil
}
