package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/projection"
	"github.com/vibast-solutions/ms-go-letters/app/provider"
	"github.com/vibast-solutions/ms-go-letters/app/storage"
	"github.com/vibast-solutions/ms-go-letters/config"
)

const (
	defaultBatchSize = int32(100)

	actorSystem        = "system"
	actorSystemWebhook = "system_webhook"
	sourceAPI          = "api"
	sourceWebhook      = "webhook"
	sourceAdminPanel   = "admin_panel"
)

type letterRenderer interface {
	Render(order *entity.Order) ([]byte, error)
}

type LetterService struct {
	store        store
	providerReg  *provider.Registry
	providerName string
	publisher    projection.Publisher
	renderer     letterRenderer
	objects      storage.Storage
	paymentsCfg  config.PaymentsConfig
	jobsCfg      config.JobsConfig
	appEnv       string
	logger       logrus.FieldLogger

	now             func() time.Time
	newTrackingCode func() (string, error)
}

func NewLetterService(
	store store,
	providerReg *provider.Registry,
	publisher projection.Publisher,
	renderer letterRenderer,
	objects storage.Storage,
	paymentsCfg config.PaymentsConfig,
	jobsCfg config.JobsConfig,
	appEnv string,
) *LetterService {
	if publisher == nil {
		publisher = projection.NoopPublisher{}
	}

	return &LetterService{
		store:           store,
		providerReg:     providerReg,
		providerName:    provider.IyzicoName,
		publisher:       publisher,
		renderer:        renderer,
		objects:         objects,
		paymentsCfg:     paymentsCfg,
		jobsCfg:         jobsCfg,
		appEnv:          strings.ToLower(strings.TrimSpace(appEnv)),
		logger:          factory.NewModuleLogger("letter-service"),
		now:             func() time.Time { return time.Now().UTC() },
		newTrackingCode: GenerateTrackingCode,
	}
}

func (s *LetterService) batchSize() int32 {
	if s.jobsCfg.BatchSize > 0 {
		return s.jobsCfg.BatchSize
	}
	return defaultBatchSize
}

// publishProjection mirrors a committed projection. The SQL row stays the
// source of truth, so a failed mirror is only logged.
func (s *LetterService) publishProjection(ctx context.Context, public *entity.OrderPublic) {
	if public == nil {
		return
	}
	if err := s.publisher.Publish(ctx, public); err != nil {
		s.logger.WithError(err).WithField("tracking_code", public.TrackingCode).Warn("Projection mirror failed")
	}
}

func newHistory(orderID string, from *string, to, actor, source string, note *string, now time.Time) *entity.StatusHistory {
	return &entity.StatusHistory{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Source:     source,
		Note:       note,
		CreatedAt:  now,
	}
}

func newAudit(action string, orderID *string, actor string, metadata map[string]any, now time.Time) *entity.AuditLog {
	return &entity.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		OrderID:   orderID,
		Actor:     actor,
		Metadata:  metadata,
		CreatedAt: now,
	}
}

func normalizeOptionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func keepFirstErr(current error, next error) error {
	if current != nil {
		return current
	}
	return next
}
