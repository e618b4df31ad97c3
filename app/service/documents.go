package service

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/policy"
)

const (
	CollectionOrderPublic = "order_public"
	CollectionUsers       = "users"
)

type DocumentRequest interface {
	GetCollection() string
	GetDocumentId() string
}

type UserProfilePayload interface {
	GetDisplayName() string
	GetEmail() string
}

// Document is one record served through the document gateway. Exactly one of
// the payload fields is set, matching Collection.
type Document struct {
	Collection string
	ID         string
	Public     *entity.OrderPublic
	User       *entity.UserProfile
}

func (s *LetterService) ReadDocument(ctx context.Context, req DocumentRequest, principal *policy.Principal) (*Document, error) {
	collection := strings.TrimSpace(req.GetCollection())
	id := strings.TrimSpace(req.GetDocumentId())

	if err := policy.Authorize(policy.Request{
		Collection: collection,
		DocumentID: id,
		Operation:  policy.OpGet,
		Principal:  principal,
	}); err != nil {
		return nil, err
	}

	switch collection {
	case CollectionOrderPublic:
		public, err := s.store.Repositories().Public.FindByTrackingCode(ctx, id)
		if err != nil {
			return nil, err
		}
		if public == nil {
			return nil, ErrDocumentNotFound
		}
		return &Document{Collection: collection, ID: id, Public: public}, nil
	case CollectionUsers:
		user, err := s.store.Repositories().Users.FindByUID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrDocumentNotFound
		}
		return &Document{Collection: collection, ID: id, User: user}, nil
	default:
		return nil, ErrDocumentNotFound
	}
}

func (s *LetterService) WriteDocument(ctx context.Context, req DocumentRequest, payload UserProfilePayload, principal *policy.Principal) (*Document, error) {
	collection := strings.TrimSpace(req.GetCollection())
	id := strings.TrimSpace(req.GetDocumentId())

	if err := policy.Authorize(policy.Request{
		Collection: collection,
		DocumentID: id,
		Operation:  policy.OpUpdate,
		Principal:  principal,
	}); err != nil {
		return nil, err
	}

	if collection != CollectionUsers {
		return nil, ErrInvalidRequest
	}

	displayName := strings.TrimSpace(payload.GetDisplayName())
	if displayName == "" {
		return nil, ErrInvalidRequest
	}

	user := &entity.UserProfile{
		UID:         id,
		DisplayName: displayName,
		Email:       normalizeOptionalString(payload.GetEmail()),
		UpdatedAt:   s.now(),
	}
	if err := s.store.Repositories().Users.Save(ctx, user); err != nil {
		return nil, err
	}
	return &Document{Collection: collection, ID: id, User: user}, nil
}
