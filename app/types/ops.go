package types

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPIICutoffDays = int32(30)
	DefaultPDFRequester  = "system:webhook"
	DefaultPIIRequester  = "system:scheduler"
)

type PdfGenerateRequest struct {
	JobType      string `json:"job_type,omitempty"`
	JobId        string `json:"job_id" validate:"required,max=64"`
	OrderId      string `json:"order_id" validate:"required,max=64"`
	TrackingCode string `json:"tracking_code,omitempty"`
	RequestedBy  string `json:"requested_by,omitempty"`
	Attempt      int32  `json:"attempt,omitempty"`
}

func (x *PdfGenerateRequest) GetJobId() string {
	if x != nil {
		return x.JobId
	}
	return ""
}

func (x *PdfGenerateRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *PdfGenerateRequest) GetTrackingCode() string {
	if x != nil {
		return x.TrackingCode
	}
	return ""
}

func (x *PdfGenerateRequest) GetRequestedBy() string {
	if x != nil && x.RequestedBy != "" {
		return x.RequestedBy
	}
	return DefaultPDFRequester
}

func (x *PdfGenerateRequest) GetAttempt() int32 {
	if x != nil && x.Attempt > 0 {
		return x.Attempt
	}
	return 1
}

func (x *PdfGenerateRequest) Validate() error {
	return validateStruct(x)
}

func NewPdfGenerateRequestFromContext(ctx echo.Context) (*PdfGenerateRequest, error) {
	var body PdfGenerateRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.JobId = strings.TrimSpace(body.JobId)
	body.OrderId = strings.TrimSpace(body.OrderId)
	body.TrackingCode = NormalizeTrackingCode(body.TrackingCode)
	body.RequestedBy = strings.TrimSpace(body.RequestedBy)
	return &body, nil
}

type PiiCleanupRequest struct {
	JobType     string `json:"job_type,omitempty"`
	JobId       string `json:"job_id" validate:"required,max=64"`
	CutoffDays  *int32 `json:"cutoff_days,omitempty" validate:"omitempty,min=0,max=3650"`
	DryRun      *bool  `json:"dry_run,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

func (x *PiiCleanupRequest) GetJobId() string {
	if x != nil {
		return x.JobId
	}
	return ""
}

func (x *PiiCleanupRequest) GetCutoffDays() int32 {
	if x != nil && x.CutoffDays != nil {
		return *x.CutoffDays
	}
	return DefaultPIICutoffDays
}

// GetDryRun defaults to true so an empty request never deletes data.
func (x *PiiCleanupRequest) GetDryRun() bool {
	if x != nil && x.DryRun != nil {
		return *x.DryRun
	}
	return true
}

func (x *PiiCleanupRequest) GetRequestedBy() string {
	if x != nil && x.RequestedBy != "" {
		return x.RequestedBy
	}
	return DefaultPIIRequester
}

func (x *PiiCleanupRequest) Validate() error {
	return validateStruct(x)
}

func NewPiiCleanupRequestFromContext(ctx echo.Context) (*PiiCleanupRequest, error) {
	var body PiiCleanupRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.JobId = strings.TrimSpace(body.JobId)
	body.RequestedBy = strings.TrimSpace(body.RequestedBy)
	return &body, nil
}

type OpsJobResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	JobId   string `json:"job_id"`
}
