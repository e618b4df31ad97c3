package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/provider"
	"github.com/vibast-solutions/ms-go-letters/app/repository"
)

const (
	AuditPaymentReceived = "PAYMENT_RECEIVED"

	pdfJobRequester = "system:webhook"
)

type CreatePaymentIntentRequest interface {
	GetOrderId() string
	GetClientRequestId() string
}

type PaymentWebhookRequest interface {
	GetSignature() string
	GetPayload() []byte
}

type WebhookResult struct {
	Processed bool
	Token     string
	OrderID   string
	Succeeded bool
	PDFJobID  string
}

func (s *LetterService) CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest) (*entity.Payment, error) {
	orderID := strings.TrimSpace(req.GetOrderId())
	if orderID == "" {
		return nil, ErrInvalidRequest
	}

	providerClient, err := s.provider()
	if err != nil {
		return nil, err
	}

	var result *entity.Payment
	err = s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
		order, err := repos.Orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PaymentStatus == entity.PaymentStatusPaid {
			return ErrOrderAlreadyPaid
		}

		if order.PaymentStatus == entity.PaymentStatusPaymentPending {
			existing, err := repos.Payment.FindPendingByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			if existing != nil {
				result = existing
				return nil
			}
		}

		amount := order.TotalAmount
		if !amount.IsPositive() {
			amount = s.paymentsCfg.LetterPrice
		}
		currency := s.currency(order.Currency)

		checkout, err := providerClient.CreateCheckout(ctx, &provider.CheckoutInput{
			OrderID:   order.ID,
			Amount:    amount,
			Currency:  currency,
			BuyerName: stringValue(order.RecipientName),
			Address:   order.AddressLine,
			City:      order.City,
		})
		if err != nil {
			return fmt.Errorf("create checkout: %w", err)
		}

		now := s.now()
		order.PaymentStatus = entity.PaymentStatusPaymentPending
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		payment := &entity.Payment{
			Token:       checkout.Token,
			OrderID:     order.ID,
			Status:      entity.PaymentIntentPending,
			Amount:      amount,
			Currency:    currency,
			Provider:    providerClient.Name(),
			CheckoutURL: checkout.CheckoutURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Payment.Create(ctx, payment); err != nil {
			if !errors.Is(err, repository.ErrPaymentAlreadyExists) {
				return err
			}
			// Providers may hand out the same token again after a failed
			// attempt; the stored intent is reopened.
			existing, err := repos.Payment.FindByTokenForUpdate(ctx, payment.Token)
			if err != nil {
				return err
			}
			if existing == nil {
				return repository.ErrPaymentNotFound
			}
			existing.Status = entity.PaymentIntentPending
			existing.ProviderPaymentID = nil
			existing.UpdatedAt = now
			if err := repos.Payment.Update(ctx, existing); err != nil {
				return err
			}
			payment = existing
		}

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// HandlePaymentWebhook applies a verified delivery in one transaction.
// Settled intents are left unchanged.
func (s *LetterService) HandlePaymentWebhook(ctx context.Context, req PaymentWebhookRequest) (*WebhookResult, error) {
	providerClient, err := s.provider()
	if err != nil {
		return nil, err
	}

	event, err := providerClient.VerifyAndParseWebhook(ctx, req.GetPayload(), req.GetSignature())
	if err != nil {
		if errors.Is(err, provider.ErrMissingSignature) || errors.Is(err, provider.ErrInvalidSignature) {
			return nil, fmt.Errorf("%w: %w", ErrWebhookRejected, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	result := &WebhookResult{Token: event.Token, Succeeded: event.Succeeded}
	var public *entity.OrderPublic

	err = s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
		payment, err := repos.Payment.FindByTokenForUpdate(ctx, event.Token)
		if err != nil {
			return err
		}
		if payment == nil || payment.Processed() {
			return nil
		}

		now := s.now()
		result.Processed = true
		result.OrderID = payment.OrderID

		payment.ProviderPaymentID = event.ProviderPaymentID
		payment.UpdatedAt = now
		if event.Succeeded {
			payment.Status = entity.PaymentIntentSucceeded
		} else {
			payment.Status = entity.PaymentIntentFailed
		}
		if err := repos.Payment.Update(ctx, payment); err != nil {
			return err
		}

		order, err := repos.Orders.FindByIDForUpdate(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			s.logger.WithField("token", payment.Token).Warn("Webhook payment references a missing order")
			return nil
		}

		if !event.Succeeded {
			order.PaymentStatus = entity.PaymentStatusFailed
			return repos.Orders.Update(ctx, order)
		}

		previous := order.Status
		updatedBy := actorSystemWebhook
		order.PaymentStatus = entity.PaymentStatusPaid
		order.Status = entity.OrderStatusPaid
		order.PaidAt = &now
		order.StatusUpdatedAt = now
		order.StatusUpdatedBy = &updatedBy
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		public, err = s.updateProjection(ctx, repos, order, nil)
		if err != nil {
			return err
		}

		if err := repos.History.Create(ctx, newHistory(order.ID, &previous, entity.OrderStatusPaid, actorSystem, sourceWebhook, nil, now)); err != nil {
			return err
		}
		if err := repos.Audit.Create(ctx, newAudit(AuditPaymentReceived, &order.ID, actorSystem, map[string]any{
			"token":  payment.Token,
			"amount": payment.Amount.StringFixed(2),
		}, now)); err != nil {
			return err
		}

		job, err := newPDFJob(order, now)
		if err != nil {
			return err
		}
		if err := repos.Jobs.Create(ctx, job); err != nil {
			return err
		}
		result.PDFJobID = job.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishProjection(ctx, public)
	return result, nil
}

func (s *LetterService) GetPaymentStatus(ctx context.Context, orderID string) (*entity.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrInvalidRequest
	}

	order, err := s.store.Repositories().Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *LetterService) provider() (provider.Provider, error) {
	if s.providerReg == nil {
		return nil, ErrProviderUnsupported
	}
	client, err := s.providerReg.Get(s.providerName)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}
	return client, nil
}

// updateProjection moves the public projection to the order's current status.
// A nil label keeps the stored one.
func (s *LetterService) updateProjection(ctx context.Context, repos *Repositories, order *entity.Order, label *string) (*entity.OrderPublic, error) {
	public, err := repos.Public.FindByTrackingCode(ctx, order.TrackingCode)
	if err != nil {
		return nil, err
	}
	if public == nil {
		prisonName := order.PrisonName
		public = &entity.OrderPublic{
			TrackingCode:  order.TrackingCode,
			OrderID:       order.ID,
			RecipientName: MaskRecipientName(stringValue(order.RecipientName)),
			PrisonName:    &prisonName,
			CreatedAt:     order.CreatedAt,
		}
	}

	public.Status = order.Status
	public.PublicStepLabel = PublicStepLabel(order.Status)
	public.StatusUpdatedAt = order.StatusUpdatedAt
	if label != nil {
		public.Label = label
	}

	if err := repos.Public.Save(ctx, public); err != nil {
		return nil, err
	}
	return public, nil
}

func newPDFJob(order *entity.Order, now time.Time) (*entity.Job, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return nil, err
	}

	orderID := order.ID
	trackingCode := order.TrackingCode
	return &entity.Job{
		ID:           "pdf_" + order.ID + "_" + suffix,
		JobType:      entity.JobTypePDFGenerate,
		OrderID:      &orderID,
		TrackingCode: &trackingCode,
		Status:       entity.JobStatusQueued,
		Attempt:      1,
		RequestedBy:  pdfJobRequester,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
