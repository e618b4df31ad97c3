package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/repository"
	"github.com/vibast-solutions/ms-go-letters/app/storage"
)

const (
	AuditPIICleanup = "PII_CLEANUP"

	MessageJobAlreadySucceeded = "No-op (Job already succeeded)"
	MessagePDFAlreadyReady     = "No-op (PDF already READY)"
	MessagePDFGenerated        = "PDF successfully generated"

	failTestJobPrefix   = "FAIL_TEST_"
	piiAuditSampleSize  = 20
	piiDryRunScanLimit  = int32(10000)
	piiCleanupMaxRounds = 1000
	pdfContentType      = "application/pdf"
)

var piiEligibleStatuses = []string{entity.OrderStatusShipped, entity.OrderStatusCancelled}

type PDFGenerateRequest interface {
	GetJobId() string
	GetOrderId() string
	GetTrackingCode() string
	GetRequestedBy() string
	GetAttempt() int32
}

type PIICleanupRequest interface {
	GetJobId() string
	GetCutoffDays() int32
	GetDryRun() bool
	GetRequestedBy() string
}

type JobOutcome struct {
	JobID   string
	Status  string
	Message string
	NoOp    bool
	Count   int
}

// GeneratePDF is idempotent per job. Work in progress on the same order
// returns ErrPDFLocked.
func (s *LetterService) GeneratePDF(ctx context.Context, req PDFGenerateRequest) (*JobOutcome, error) {
	jobID := strings.TrimSpace(req.GetJobId())
	orderID := strings.TrimSpace(req.GetOrderId())
	if jobID == "" || orderID == "" {
		return nil, ErrInvalidRequest
	}

	var outcome *JobOutcome
	var order *entity.Order

	err := s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
		job, err := repos.Jobs.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		if job != nil && job.Status == entity.JobStatusSucceeded {
			outcome = &JobOutcome{JobID: jobID, Status: entity.JobStatusSucceeded, Message: MessageJobAlreadySucceeded, NoOp: true}
			return nil
		}

		order, err = repos.Orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		now := s.now()
		switch stringValue(order.PDFStatus) {
		case entity.PDFStatusReady:
			outcome = &JobOutcome{JobID: jobID, Status: entity.JobStatusSucceeded, Message: MessagePDFAlreadyReady, NoOp: true}
			if job != nil {
				job.Status = entity.JobStatusSucceeded
				job.UpdatedAt = now
				return repos.Jobs.Update(ctx, job)
			}
			return nil
		case entity.PDFStatusGenerating:
			return ErrPDFLocked
		}

		generating := entity.PDFStatusGenerating
		order.PDFStatus = &generating
		order.PDFError = nil
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		if job == nil {
			job = &entity.Job{
				ID:           jobID,
				JobType:      entity.JobTypePDFGenerate,
				OrderID:      &order.ID,
				TrackingCode: normalizeOptionalString(req.GetTrackingCode()),
				RequestedBy:  req.GetRequestedBy(),
				CreatedAt:    now,
			}
			if job.TrackingCode == nil {
				job.TrackingCode = &order.TrackingCode
			}
			job.Status = entity.JobStatusRunning
			job.Attempt = req.GetAttempt()
			job.UpdatedAt = now
			return repos.Jobs.Create(ctx, job)
		}

		job.Status = entity.JobStatusRunning
		job.Attempt = req.GetAttempt()
		job.LastError = nil
		job.UpdatedAt = now
		return repos.Jobs.Update(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return outcome, nil
	}

	logger := s.logger.WithField("job_id", jobID).WithField("order_id", orderID)
	path, genErr := s.renderAndStore(ctx, jobID, order)
	if genErr != nil {
		logger.WithError(genErr).Error("PDF generation failed")
		if err := s.finishPDFJob(ctx, jobID, orderID, "", genErr); err != nil {
			logger.WithError(err).Error("Recording PDF failure failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGenerationFailed, genErr)
	}

	if err := s.finishPDFJob(ctx, jobID, orderID, path, nil); err != nil {
		return nil, err
	}

	logger.WithField("pdf_path", path).Info("PDF generated")
	return &JobOutcome{JobID: jobID, Status: entity.JobStatusSucceeded, Message: MessagePDFGenerated}, nil
}

func (s *LetterService) renderAndStore(ctx context.Context, jobID string, order *entity.Order) (string, error) {
	if s.failureInjectionEnabled() && strings.HasPrefix(jobID, failTestJobPrefix) {
		return "", fmt.Errorf("controlled test failure for job %s", jobID)
	}
	if s.renderer == nil || s.objects == nil {
		return "", errors.New("pdf pipeline is not configured")
	}

	content, err := s.renderer.Render(order)
	if err != nil {
		return "", err
	}

	result, err := s.objects.Put(ctx, bytes.NewReader(content), storage.PutInput{
		Key:         storage.LetterPDFKey(order.ID),
		ContentType: pdfContentType,
	})
	if err != nil {
		return "", err
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return result.Key, nil
}

// failureInjectionEnabled allows FAIL_TEST_ jobs to fail on purpose outside
// production.
func (s *LetterService) failureInjectionEnabled() bool {
	return s.appEnv == "staging" || s.appEnv == "test"
}

func (s *LetterService) finishPDFJob(ctx context.Context, jobID, orderID, path string, genErr error) error {
	return s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
		now := s.now()

		job, err := repos.Jobs.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		if job != nil {
			job.UpdatedAt = now
			if genErr != nil {
				msg := genErr.Error()
				job.Status = entity.JobStatusFailed
				job.LastError = &msg
			} else {
				job.Status = entity.JobStatusSucceeded
				job.LastError = nil
			}
			if err := repos.Jobs.Update(ctx, job); err != nil {
				return err
			}
		}

		order, err := repos.Orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		if genErr != nil {
			failed := entity.PDFStatusFailed
			msg := genErr.Error()
			order.PDFStatus = &failed
			order.PDFError = &msg
		} else {
			ready := entity.PDFStatusReady
			order.PDFStatus = &ready
			order.PDFPath = &path
			order.PDFError = nil
		}
		return repos.Orders.Update(ctx, order)
	})
}

func (s *LetterService) CleanupPII(ctx context.Context, req PIICleanupRequest) (*JobOutcome, error) {
	jobID := strings.TrimSpace(req.GetJobId())
	cutoffDays := req.GetCutoffDays()
	if jobID == "" || cutoffDays < 0 {
		return nil, ErrInvalidRequest
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -int(cutoffDays))
	repos := s.store.Repositories()

	if req.GetDryRun() {
		candidates, err := repos.Orders.ListPIICandidates(ctx, piiEligibleStatuses, cutoff, piiDryRunScanLimit)
		if err != nil {
			return nil, err
		}
		count := 0
		for _, order := range candidates {
			if order.HasPII() {
				count++
			}
		}
		return &JobOutcome{
			JobID:   jobID,
			Status:  entity.JobStatusSucceeded,
			Message: fmt.Sprintf("Dry run success. Est records: %d", count),
			Count:   count,
		}, nil
	}

	cleanedIDs := make([]string, 0)
	for round := 0; round < piiCleanupMaxRounds; round++ {
		cleaned, scanned, err := s.cleanupPIIBatch(ctx, cutoff, now)
		if err != nil {
			return nil, err
		}
		cleanedIDs = append(cleanedIDs, cleaned...)
		if scanned < int(s.batchSize()) {
			break
		}
	}

	sample := cleanedIDs
	if len(sample) > piiAuditSampleSize {
		sample = sample[:piiAuditSampleSize]
	}
	if err := repos.Audit.Create(ctx, newAudit(AuditPIICleanup, nil, req.GetRequestedBy(), map[string]any{
		"job_id":            jobID,
		"cleaned_count":     len(cleanedIDs),
		"cleaned_order_ids": sample,
		"cutoff_days":       cutoffDays,
	}, now)); err != nil {
		return nil, err
	}

	if err := s.recordJob(ctx, &entity.Job{
		ID:          jobID,
		JobType:     entity.JobTypePIICleanup,
		Status:      entity.JobStatusSucceeded,
		Attempt:     1,
		RequestedBy: req.GetRequestedBy(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Warn("Recording PII cleanup job failed")
	}

	return &JobOutcome{
		JobID:   jobID,
		Status:  entity.JobStatusSucceeded,
		Message: fmt.Sprintf("PII cleaned from %d records.", len(cleanedIDs)),
		Count:   len(cleanedIDs),
	}, nil
}

// cleanupPIIBatch clears one batch of candidates. It returns the ids that
// still carried PII and the number of candidates scanned. Candidates with
// nothing left to clear are only stamped so they leave the candidate set.
func (s *LetterService) cleanupPIIBatch(ctx context.Context, cutoff, now time.Time) ([]string, int, error) {
	cleaned := make([]string, 0)
	scanned := 0
	err := s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
		candidates, err := repos.Orders.ListPIICandidates(ctx, piiEligibleStatuses, cutoff, s.batchSize())
		if err != nil {
			return err
		}
		scanned = len(candidates)
		for _, order := range candidates {
			if !order.HasPII() {
				order.PIICleanedAt = &now
				if err := repos.Orders.Update(ctx, order); err != nil {
					return err
				}
				continue
			}
			order.LetterText = ""
			order.RecipientName = nil
			order.AddressLine = ""
			order.SenderName = nil
			order.SenderCity = nil
			order.PIICleanedAt = &now
			if err := repos.Orders.Update(ctx, order); err != nil {
				return err
			}
			cleaned = append(cleaned, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return cleaned, scanned, nil
}

func (s *LetterService) recordJob(ctx context.Context, job *entity.Job) error {
	jobs := s.store.Repositories().Jobs
	err := jobs.Create(ctx, job)
	if errors.Is(err, repository.ErrJobAlreadyExists) {
		return jobs.Update(ctx, job)
	}
	return err
}
