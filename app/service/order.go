package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/repository"
)

const (
	maxTrackingCodeAttempts = 5

	AuditOrderCreated = "ORDER_CREATED"
)

type CreateOrderRequest interface {
	GetClientRequestId() string
	GetLetterText() string
	GetRecipientName() string
	GetPrisonName() string
	GetCity() string
	GetAddressLine() string
	GetSenderName() string
	GetSenderCity() string
	GetUserId() string
}

// CreateOrder places a new letter order. A repeated client request id returns
// the order created by the first request.
func (s *LetterService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*entity.Order, error) {
	if strings.TrimSpace(req.GetLetterText()) == "" ||
		strings.TrimSpace(req.GetPrisonName()) == "" ||
		strings.TrimSpace(req.GetCity()) == "" ||
		strings.TrimSpace(req.GetAddressLine()) == "" {
		return nil, ErrInvalidRequest
	}

	clientRequestID := strings.TrimSpace(req.GetClientRequestId())
	if existing, err := s.findByClientRequestID(ctx, clientRequestID); err != nil || existing != nil {
		return existing, err
	}

	for attempt := 0; attempt < maxTrackingCodeAttempts; attempt++ {
		code, err := s.newTrackingCode()
		if err != nil {
			return nil, err
		}

		order, public := s.buildOrder(req, code)
		err = s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
			if err := repos.Orders.Create(ctx, order); err != nil {
				return err
			}
			if err := repos.Public.Save(ctx, public); err != nil {
				return err
			}
			if err := repos.History.Create(ctx, newHistory(order.ID, nil, entity.OrderStatusCreated, actorSystem, sourceAPI, nil, order.CreatedAt)); err != nil {
				return err
			}
			return repos.Audit.Create(ctx, newAudit(AuditOrderCreated, &order.ID, actorSystem, nil, order.CreatedAt))
		})
		if err == nil {
			s.publishProjection(ctx, public)
			return order, nil
		}
		if !errors.Is(err, repository.ErrOrderAlreadyExists) {
			return nil, err
		}

		// Either a concurrent request with the same idempotency key won, or
		// the tracking code collided and another one is drawn.
		if existing, err := s.findByClientRequestID(ctx, clientRequestID); err != nil || existing != nil {
			return existing, err
		}
	}

	return nil, ErrTrackingCodeSpace
}

func (s *LetterService) findByClientRequestID(ctx context.Context, clientRequestID string) (*entity.Order, error) {
	if clientRequestID == "" {
		return nil, nil
	}
	return s.store.Repositories().Orders.FindByClientRequestID(ctx, clientRequestID)
}

func (s *LetterService) buildOrder(req CreateOrderRequest, trackingCode string) (*entity.Order, *entity.OrderPublic) {
	now := s.now()
	userID := normalizeOptionalString(req.GetUserId())
	pdfStatus := entity.PDFStatusPending
	updatedBy := actorSystem

	order := &entity.Order{
		ID:              uuid.NewString(),
		TrackingCode:    trackingCode,
		LetterText:      strings.TrimSpace(req.GetLetterText()),
		RecipientName:   normalizeOptionalString(req.GetRecipientName()),
		PrisonName:      strings.TrimSpace(req.GetPrisonName()),
		City:            strings.TrimSpace(req.GetCity()),
		AddressLine:     strings.TrimSpace(req.GetAddressLine()),
		SenderName:      normalizeOptionalString(req.GetSenderName()),
		SenderCity:      normalizeOptionalString(req.GetSenderCity()),
		Status:          entity.OrderStatusCreated,
		PaymentStatus:   entity.PaymentStatusPending,
		TotalAmount:     s.paymentsCfg.LetterPrice,
		Currency:        s.currency(""),
		IsGuest:         userID == nil,
		UserID:          userID,
		ClientRequestID: normalizeOptionalString(req.GetClientRequestId()),
		PDFStatus:       &pdfStatus,
		CreatedAt:       now,
		StatusUpdatedAt: now,
		StatusUpdatedBy: &updatedBy,
	}

	prisonName := order.PrisonName
	public := &entity.OrderPublic{
		TrackingCode:    trackingCode,
		OrderID:         order.ID,
		Status:          entity.OrderStatusCreated,
		PublicStepLabel: CreatedStepLabel,
		RecipientName:   MaskRecipientName(req.GetRecipientName()),
		PrisonName:      &prisonName,
		CreatedAt:       now,
		StatusUpdatedAt: now,
	}

	return order, public
}

func (s *LetterService) currency(orderCurrency string) string {
	if c := strings.ToUpper(strings.TrimSpace(orderCurrency)); c != "" {
		return c
	}
	if c := strings.ToUpper(strings.TrimSpace(s.paymentsCfg.Currency)); c != "" {
		return c
	}
	return "TRY"
}

func (s *LetterService) TrackOrder(ctx context.Context, trackingCode string) (*entity.OrderPublic, error) {
	trackingCode = strings.ToUpper(strings.TrimSpace(trackingCode))
	if trackingCode == "" {
		return nil, ErrInvalidRequest
	}

	public, err := s.store.Repositories().Public.FindByTrackingCode(ctx, trackingCode)
	if err != nil {
		return nil, err
	}
	if public == nil {
		return nil, ErrTrackingNotFound
	}
	return public, nil
}
