package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type opsService interface {
	GeneratePDF(ctx context.Context, req service.PDFGenerateRequest) (*service.JobOutcome, error)
	CleanupPII(ctx context.Context, req service.PIICleanupRequest) (*service.JobOutcome, error)
}

// OpsController serves the job endpoints called by schedulers and task
// queues. Non-2xx answers are retried by the caller.
type OpsController struct {
	ops    opsService
	logger logrus.FieldLogger
}

func NewOpsController(ops opsService) *OpsController {
	return &OpsController{
		ops:    ops,
		logger: factory.NewModuleLogger("ops-controller"),
	}
}

func (c *OpsController) GeneratePDF(ctx echo.Context) error {
	req, err := types.NewPdfGenerateRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	outcome, err := c.ops.GeneratePDF(ctx.Request().Context(), req)
	if err != nil {
		logger := factory.LoggerWithContext(c.logger, ctx).WithField("job_id", req.GetJobId())
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return writeError(ctx, http.StatusNotFound, "Order not found for PDF job")
		case errors.Is(err, service.ErrPDFLocked):
			return writeError(ctx, http.StatusConflict, "PDF generation currently locked / in progress")
		case errors.Is(err, service.ErrPDFGenerationFailed):
			logger.WithError(err).Warn("PDF job failed")
			return writeError(ctx, http.StatusInternalServerError, "PDF Service failure")
		default:
			logger.WithError(err).Error("PDF job failed")
			return writeError(ctx, http.StatusInternalServerError, "PDF Service failure")
		}
	}

	return ctx.JSON(http.StatusOK, outcomeResponse(outcome))
}

func (c *OpsController) CleanupPII(ctx echo.Context) error {
	req, err := types.NewPiiCleanupRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	outcome, err := c.ops.CleanupPII(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).WithField("job_id", req.GetJobId()).Error("PII cleanup failed")
		return writeError(ctx, http.StatusInternalServerError, "Cleanup sweep failed")
	}

	return ctx.JSON(http.StatusOK, outcomeResponse(outcome))
}

func outcomeResponse(outcome *service.JobOutcome) *types.OpsJobResponse {
	return &types.OpsJobResponse{
		Message: outcome.Message,
		Status:  outcome.Status,
		JobId:   outcome.JobID,
	}
}
