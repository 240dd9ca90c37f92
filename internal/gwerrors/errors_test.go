package gwerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorFallbackMessage(t *testing.T) {
	err := NewAPIError(http.StatusInternalServerError, "")

	assert.Equal(t, "An error occurred (HTTP 500)", err.Message)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestUnauthorizedIsAuthenticationFailure(t *testing.T) {
	err := fmt.Errorf("loading posts: %w", NewAPIError(http.StatusUnauthorized, "Could not validate credentials"))

	assert.True(t, IsAuthenticationFailure(err))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestOtherStatusIsNotAuthenticationFailure(t *testing.T) {
	err := NewAPIError(http.StatusForbidden, "Not allowed")

	assert.False(t, IsAuthenticationFailure(err))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestAPIErrorUnwrapsRefreshReason(t *testing.T) {
	err := &APIError{Status: http.StatusUnauthorized, Message: "session expired", Err: ErrRefreshRejected}

	assert.ErrorIs(t, err, ErrRefreshRejected)
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
	assert.Contains(t, err.Error(), "refresh token was rejected")
}

func TestTransportError(t *testing.T) {
	err := &TransportError{Method: http.MethodGet, URL: "http://backend/auth/me", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsAuthenticationFailure(err))
	assert.Equal(t, 0, StatusOf(err))
}
