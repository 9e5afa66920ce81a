package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is the header and context key carrying the request id.
const RequestIDKey = "X-Request-ID"

// FromContext returns the request-scoped logger bound by Middleware. Handlers
// running outside the middleware chain (tests, mostly) fall back to the global
// logger tagged with whatever request id is available.
func FromContext(c echo.Context) *zap.Logger {
	if scoped, ok := c.Get("logger").(*zap.Logger); ok {
		return scoped
	}
	return GetLogger().With(zap.String("request_id", requestID(c)))
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok && id != "" {
		return id
	}
	if id := c.Request().Header.Get(RequestIDKey); id != "" {
		return id
	}
	return "unknown"
}
