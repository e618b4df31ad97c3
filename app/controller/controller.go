package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

const msgInternalError = "internal server error"

func writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

// writeValidationError reports field errors from request validation and
// falls back to the plain message for anything else.
func writeValidationError(ctx echo.Context, err error) error {
	var fields types.FieldErrors
	if errors.As(err, &fields) {
		return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "validation failed", Fields: fields})
	}
	return writeError(ctx, http.StatusBadRequest, err.Error())
}
