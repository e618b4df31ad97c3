package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

const userContextKey = "auth.user"

const (
	msgNotAuthenticated   = "Not authenticated"
	msgInvalidCredentials = "Invalid authentication credentials"
	msgNotAdmin           = "The user doesn't have enough privileges"
)

func UserFromContext(ctx echo.Context) *User {
	user, _ := ctx.Get(userContextKey).(*User)
	return user
}

// OptionalUser resolves a bearer token when one is sent. Requests without
// one continue as guests; a bad token is rejected.
func (a *Authenticator) OptionalUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := BearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return next(ctx)
			}

			user, err := a.Parse(token)
			if err != nil {
				return unauthorized(ctx, msgInvalidCredentials)
			}
			ctx.Set(userContextKey, user)
			return next(ctx)
		}
	}
}

func (a *Authenticator) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			user, err := a.Parse(BearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization)))
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					return unauthorized(ctx, msgNotAuthenticated)
				}
				return unauthorized(ctx, msgInvalidCredentials)
			}
			ctx.Set(userContextKey, user)
			return next(ctx)
		}
	}
}

func (a *Authenticator) RequireAdmin() echo.MiddlewareFunc {
	requireUser := a.RequireUser()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return requireUser(func(ctx echo.Context) error {
			if user := UserFromContext(ctx); user == nil || !user.Admin {
				return ctx.JSON(http.StatusForbidden, &types.ErrorResponse{Error: msgNotAdmin})
			}
			return next(ctx)
		})
	}
}

func unauthorized(ctx echo.Context, message string) error {
	ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: message})
}
