package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/utils"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// authErrorResponse tells the browser where to start a new login.
type authErrorResponse struct {
	Detail string `json:"detail"`
	Login  string `json:"login"`
}

// HTTPErrorHandler maps the errors of the session layer to JSON responses and leaves
// everything else to the default echo handler.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var apiErr *gwerrors.APIError
	var status int
	var body any
	switch {
	case errors.Is(err, gwerrors.ErrSessionExpired), errors.Is(err, gwerrors.ErrSessionNotFound):
		status, body = http.StatusUnauthorized, authErrorResponse{Detail: "The session has ended", Login: loginPath}
	case gwerrors.IsAuthenticationFailure(err):
		detail := "Not authenticated"
		if errors.As(err, &apiErr) {
			detail = apiErr.Message
		}
		status, body = http.StatusUnauthorized, authErrorResponse{Detail: detail, Login: loginPath}
	case errors.As(err, &apiErr):
		status, body = apiErr.Status, errorResponse{Detail: apiErr.Message}
	case errors.Is(err, gwerrors.ErrTransport):
		status, body = http.StatusBadGateway, errorResponse{Detail: "The board API cannot be reached"}
	case errors.Is(err, gwerrors.ErrInvalidParameter):
		status, body = http.StatusBadRequest, errorResponse{Detail: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		status, body = http.StatusGatewayTimeout, errorResponse{Detail: "The board API did not answer in time"}
	default:
		c.Echo().DefaultHTTPErrorHandler(err, c)
		return
	}
	if status >= http.StatusInternalServerError {
		slog.Error("GATEWAY ERROR", "status", status, "error", err, "requestID", utils.GetRequestID(c))
	}
	if err := c.JSON(status, body); err != nil {
		slog.Error("GATEWAY ERROR", "message", "writing the error response failed", "error", err)
	}
}
