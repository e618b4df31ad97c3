package factory

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NewModuleLogger returns the standard logger tagged with the module name.
func NewModuleLogger(module string) logrus.FieldLogger {
	return logrus.StandardLogger().WithField("module", module)
}

// LoggerWithContext adds the request id of the current HTTP request, taken
// from the response header when a middleware already set it.
func LoggerWithContext(logger logrus.FieldLogger, ctx echo.Context) logrus.FieldLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if ctx == nil {
		return logger
	}

	requestID := strings.TrimSpace(ctx.Response().Header().Get(echo.HeaderXRequestID))
	if requestID == "" {
		requestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}
	if requestID == "" {
		return logger
	}
	return logger.WithField("request_id", requestID)
}
