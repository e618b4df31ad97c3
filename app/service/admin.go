package service

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/repository"
)

const (
	AuditOrderStatusChange = "ORDER_STATUS_CHANGE"

	defaultAdminListLimit = int32(20)
	maxAdminListLimit     = int32(100)
)

type ListOrdersRequest interface {
	GetStatus() string
	GetLimit() int32
	GetCursor() string
}

type UpdateOrderStatusRequest interface {
	GetOrderId() string
	GetToStatus() string
	GetExpectedFromStatus() string
	GetNote() string
	GetLabel() string
	GetActor() string
}

type OrderPage struct {
	Items      []*entity.Order
	NextCursor *string
	HasMore    bool
}

type StatusChange struct {
	OrderID        string
	PreviousStatus string
	NewStatus      string
}

// ListOrders pages through orders newest first. The cursor is the id of the
// last order on the previous page; an unknown cursor starts from the top.
func (s *LetterService) ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderPage, error) {
	limit := req.GetLimit()
	if limit <= 0 {
		limit = defaultAdminListLimit
	}
	if limit > maxAdminListLimit {
		limit = maxAdminListLimit
	}

	status := strings.ToUpper(strings.TrimSpace(req.GetStatus()))
	if status != "" && !IsKnownStatus(status) {
		return nil, ErrInvalidRequest
	}

	repos := s.store.Repositories()
	filter := repository.OrderFilter{Status: status, Limit: limit}
	if cursor := strings.TrimSpace(req.GetCursor()); cursor != "" {
		after, err := repos.Orders.FindByID(ctx, cursor)
		if err != nil {
			return nil, err
		}
		filter.After = after
	}

	items, err := repos.Orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{Items: items, HasMore: len(items) == int(limit)}
	if page.HasMore && len(items) > 0 {
		last := items[len(items)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func (s *LetterService) UpdateOrderStatus(ctx context.Context, req UpdateOrderStatusRequest) (*StatusChange, error) {
	orderID := strings.TrimSpace(req.GetOrderId())
	to := strings.ToUpper(strings.TrimSpace(req.GetToStatus()))
	expected := strings.ToUpper(strings.TrimSpace(req.GetExpectedFromStatus()))
	adminUID := strings.TrimSpace(req.GetActor())
	if orderID == "" || to == "" || expected == "" || adminUID == "" {
		return nil, ErrInvalidRequest
	}

	actor := "admin_" + adminUID
	note := normalizeOptionalString(req.GetNote())
	label := normalizeOptionalString(req.GetLabel())

	var change *StatusChange
	var public *entity.OrderPublic

	err := s.store.InTx(ctx, func(ctx context.Context, repos *Repositories) error {
		order, err := repos.Orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		previous := order.Status
		if previous != expected {
			return &StatusMismatchError{Expected: expected, Current: previous}
		}
		if !CanTransition(previous, to) {
			return &InvalidTransitionError{From: previous, To: to}
		}

		now := s.now()
		order.Status = to
		order.StatusUpdatedAt = now
		order.StatusUpdatedBy = &adminUID
		if label != nil {
			order.Label = label
		}
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		public, err = s.updateProjection(ctx, repos, order, label)
		if err != nil {
			return err
		}

		if err := repos.History.Create(ctx, newHistory(order.ID, &previous, to, actor, sourceAdminPanel, note, now)); err != nil {
			return err
		}
		if err := repos.Audit.Create(ctx, newAudit(AuditOrderStatusChange, &order.ID, actor, map[string]any{
			"from": previous,
			"to":   to,
		}, now)); err != nil {
			return err
		}

		change = &StatusChange{OrderID: order.ID, PreviousStatus: previous, NewStatus: to}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishProjection(ctx, public)
	return change, nil
}
