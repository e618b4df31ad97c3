package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/vibast-solutions/ms-go-letters/app/types"
	"golang.org/x/time/rate"
)

// perMinuteLimit limits a route to n requests per minute per client IP.
// n <= 0 disables the limit.
func perMinuteLimit(n int) echo.MiddlewareFunc {
	if n <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	message := fmt.Sprintf("Rate limit exceeded: %d per 1 minute", n)
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Every(time.Minute / time.Duration(n)),
			Burst:     n,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, _ error) error {
			return ctx.JSON(http.StatusForbidden, &types.ErrorResponse{Error: "unable to identify client"})
		},
		DenyHandler: func(ctx echo.Context, _ string, _ error) error {
			return ctx.JSON(http.StatusTooManyRequests, &types.ErrorResponse{Error: message})
		},
	})
}
