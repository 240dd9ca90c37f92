package gateway

import (
	"log/slog"
	"time"

	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/bulletinboard/board-gateway/internal/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// NoCaching sets headers in responses that prevent caching by the browser.
func NoCaching(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var noCacheHeaders = map[string]string{
			"Expires":         time.Unix(0, 0).Format(time.RFC1123),
			"Cache-Control":   "no-cache, no-store, must-revalidate, max-age=0",
			"X-Accel-Expires": "0",
		}
		for k, v := range noCacheHeaders {
			c.Response().Header().Set(k, v)
		}
		return next(c)
	}
}

// RequestIDGenerator adapts an IDGenerator to the request ID middleware of echo.
func RequestIDGenerator(generator models.IDGenerator) func() string {
	return func() string {
		id, err := generator.ID()
		if err != nil {
			slog.Error("REQUEST ID", "message", "generating a request ID failed", "error", err)
			return uuid.NewString()
		}
		return id
	}
}

// RequestIDToContext copies the request ID set by the echo middleware into the request context
// so that the dispatcher forwards it to the board API.
func RequestIDToContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GetRequestID(c)
		if requestID != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(utils.ContextWithRequestID(req.Context(), requestID)))
		}
		return next(c)
	}
}
