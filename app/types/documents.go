package types

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type DocumentRequest struct {
	Collection string
	DocumentId string
}

func (x *DocumentRequest) GetCollection() string {
	if x != nil {
		return x.Collection
	}
	return ""
}

func (x *DocumentRequest) GetDocumentId() string {
	if x != nil {
		return x.DocumentId
	}
	return ""
}

func NewDocumentRequestFromContext(ctx echo.Context) *DocumentRequest {
	return &DocumentRequest{
		Collection: strings.TrimSpace(ctx.Param("collection")),
		DocumentId: strings.TrimSpace(ctx.Param("id")),
	}
}

type UserProfilePayload struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Email       string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

func (x *UserProfilePayload) GetDisplayName() string {
	if x != nil {
		return x.DisplayName
	}
	return ""
}

func (x *UserProfilePayload) GetEmail() string {
	if x != nil {
		return x.Email
	}
	return ""
}

func (x *UserProfilePayload) Validate() error {
	return validateStruct(x)
}

func NewUserProfilePayloadFromContext(ctx echo.Context) (*UserProfilePayload, error) {
	var body UserProfilePayload
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.DisplayName = strings.TrimSpace(body.DisplayName)
	body.Email = strings.TrimSpace(body.Email)
	return &body, nil
}

type UserProfileResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
}
