package projection

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/config"
)

const Collection = "order_public"

// Publisher mirrors the public order projection to an external read store.
type Publisher interface {
	Publish(ctx context.Context, public *entity.OrderPublic) error
	Close() error
}

// Document is the mirrored shape. It deliberately has no order id.
type Document struct {
	TrackingCode    string    `firestore:"tracking_code"`
	Status          string    `firestore:"status"`
	PublicStepLabel string    `firestore:"public_step_label"`
	RecipientName   *string   `firestore:"recipient_name"`
	PrisonName      *string   `firestore:"prison_name"`
	Label           *string   `firestore:"label"`
	CreatedAt       time.Time `firestore:"created_at"`
	StatusUpdatedAt time.Time `firestore:"status_updated_at"`
}

func ToDocument(public *entity.OrderPublic) Document {
	return Document{
		TrackingCode:    public.TrackingCode,
		Status:          public.Status,
		PublicStepLabel: public.PublicStepLabel,
		RecipientName:   public.RecipientName,
		PrisonName:      public.PrisonName,
		Label:           public.Label,
		CreatedAt:       public.CreatedAt.UTC(),
		StatusUpdatedAt: public.StatusUpdatedAt.UTC(),
	}
}

type FirestorePublisher struct {
	client     *firestore.Client
	collection string
}

func NewFirestorePublisher(ctx context.Context, cfg config.FirestoreConfig) (*FirestorePublisher, error) {
	opts := make([]option.ClientOption, 0, 1)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	return &FirestorePublisher{client: client, collection: Collection}, nil
}

func (p *FirestorePublisher) Publish(ctx context.Context, public *entity.OrderPublic) error {
	_, err := p.client.Collection(p.collection).Doc(public.TrackingCode).Set(ctx, ToDocument(public))
	return err
}

func (p *FirestorePublisher) Close() error {
	return p.client.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *entity.OrderPublic) error { return nil }

func (NoopPublisher) Close() error { return nil }

// FromConfig returns a Firestore publisher when a project is configured and a
// no-op publisher otherwise.
func FromConfig(ctx context.Context, cfg config.FirestoreConfig) (Publisher, error) {
	if cfg.ProjectID == "" {
		return NoopPublisher{}, nil
	}
	return NewFirestorePublisher(ctx, cfg)
}
