package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/auth"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/mapper"
	"github.com/vibast-solutions/ms-go-letters/app/policy"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type documentService interface {
	ReadDocument(ctx context.Context, req service.DocumentRequest, principal *policy.Principal) (*service.Document, error)
	WriteDocument(ctx context.Context, req service.DocumentRequest, payload service.UserProfilePayload, principal *policy.Principal) (*service.Document, error)
}

// DocumentController exposes client documents under the access policy.
type DocumentController struct {
	documents documentService
	logger    logrus.FieldLogger
}

func NewDocumentController(documents documentService) *DocumentController {
	return &DocumentController{
		documents: documents,
		logger:    factory.NewModuleLogger("documents-controller"),
	}
}

func (c *DocumentController) Get(ctx echo.Context) error {
	req := types.NewDocumentRequestFromContext(ctx)

	doc, err := c.documents.ReadDocument(ctx.Request().Context(), req, auth.UserFromContext(ctx).Principal())
	if err != nil {
		return c.writeDocumentError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, documentBody(doc))
}

func (c *DocumentController) Put(ctx echo.Context) error {
	req := types.NewDocumentRequestFromContext(ctx)

	payload, err := types.NewUserProfilePayloadFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	// Denied callers get 403 before any payload validation.
	if err := policy.Authorize(policy.Request{
		Collection: req.GetCollection(),
		DocumentID: req.GetDocumentId(),
		Operation:  policy.OpUpdate,
		Principal:  auth.UserFromContext(ctx).Principal(),
	}); err != nil {
		return c.writeDocumentError(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	doc, err := c.documents.WriteDocument(ctx.Request().Context(), req, payload, auth.UserFromContext(ctx).Principal())
	if err != nil {
		return c.writeDocumentError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, documentBody(doc))
}

func (c *DocumentController) writeDocumentError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, policy.ErrDenied):
		factory.LoggerWithContext(c.logger, ctx).WithField("reason", err.Error()).Info("Document access denied")
		return writeError(ctx, http.StatusForbidden, policy.ErrDenied.Error())
	case errors.Is(err, service.ErrDocumentNotFound):
		return writeError(ctx, http.StatusNotFound, "document not found")
	case errors.Is(err, service.ErrInvalidRequest):
		return writeError(ctx, http.StatusBadRequest, err.Error())
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Document access failed")
		return writeError(ctx, http.StatusInternalServerError, msgInternalError)
	}
}

func documentBody(doc *service.Document) any {
	if doc.User != nil {
		return mapper.UserProfileToResponse(doc.User)
	}
	return mapper.OrderPublicToTrackResponse(doc.Public)
}
