// Package gwerrors contains all common errors used by the gateway.
package gwerrors

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrSessionNotFound = fmt.Errorf("cannot find the session")
var ErrSessionExpired = fmt.Errorf("the session is expired")
var ErrTokenNotFound = fmt.Errorf("the token cannot be found")
var ErrMissingDBResource = fmt.Errorf("the requested resource cannot be found in the DB")

// ErrInvalidParameter is returned before any request is sent when an argument is out of range.
var ErrInvalidParameter = fmt.Errorf("invalid parameter")

// ErrNoRefreshCredential is returned when a refresh is attempted without a stored refresh token.
var ErrNoRefreshCredential = fmt.Errorf("no refresh token is stored")

// ErrRefreshRejected is returned when the identity provider did not accept the refresh token.
var ErrRefreshRejected = fmt.Errorf("the refresh token was rejected")

// ErrAuthenticationFailure matches every error that ends the session: a 401 that could not be
// recovered by a refresh.
var ErrAuthenticationFailure = fmt.Errorf("authentication failed")

// ErrTransport matches every *TransportError.
var ErrTransport = fmt.Errorf("transport failure")

const genericErrorMessage = "An error occurred"

// APIError is a non-success response from the backend.
type APIError struct {
	Status  int
	Message string
	// Err is the reason a 401 could not be recovered, nil otherwise
	Err error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api error (status %d): %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports unauthorized responses as authentication failures.
func (e *APIError) Is(target error) bool {
	return target == ErrAuthenticationFailure && e.Status == http.StatusUnauthorized
}

// NewAPIError builds an APIError, falling back to a generic message when the backend sent none.
func NewAPIError(status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("%s (HTTP %d)", genericErrorMessage, status)
	}
	return &APIError{Status: status, Message: message}
}

// TransportError means no response was obtained at all (network, DNS, timeout).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IsAuthenticationFailure reports whether the user has to log in again.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrAuthenticationFailure)
}

// StatusOf returns the HTTP status carried by an APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
