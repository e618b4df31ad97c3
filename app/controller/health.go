package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

func (c *HealthController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok", Message: "Service is healthy"})
}

func (c *HealthController) Root(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Emektup API is running"})
}
