// Package dispatcher sends authenticated requests to the board backend.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/bulletinboard/board-gateway/internal/utils"
)

const defaultRequestTimeout time.Duration = 15 * time.Second

// Request describes one backend call. Path is relative to the API base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is sent as is when it is a []byte or an io.Reader and encoded as JSON otherwise
	Body any
	// Headers are added after the defaults, so they can override Content-Type
	Headers http.Header
}

// TokenReader gives the dispatcher read access to the session credentials.
type TokenReader interface {
	models.AccessTokenGetter
}

// RefreshCoordinator is the only component allowed to write the session credentials.
type RefreshCoordinator interface {
	Refresh(ctx context.Context, stale string) (string, error)
	RefreshBeforeExpiry(ctx context.Context, stale string) (string, error)
	Invalidate(ctx context.Context) error
}

type Dispatcher struct {
	sessionID    string
	baseURL      *url.URL
	client       *http.Client
	tokens       TokenReader
	coordinator  RefreshCoordinator
	expiryMargin time.Duration
}

type response struct {
	status int
	body   []byte
}

func (r response) success() bool {
	return r.status >= 200 && r.status < 300
}

// Send performs the request and decodes a successful JSON response into out. A 401 is
// answered with exactly one refresh and one retry, at most one refresh happens per call.
func (d *Dispatcher) Send(ctx context.Context, r Request, out any) error {
	body, err := encodeBody(r.Body)
	if err != nil {
		return err
	}
	token, err := d.accessToken(ctx)
	if err != nil {
		return err
	}

	// a refresh before expiry uses up the single refresh of the call, even when it failed
	refreshed := false
	if token != "" && models.ExpiresWithin(token, d.expiryMargin) {
		slog.Debug("DISPATCHER", "message", "access token expires soon, refreshing before sending", "sessionID", d.sessionID)
		fresh, err := d.coordinator.RefreshBeforeExpiry(ctx, token)
		switch {
		case err == nil:
			token = fresh
			refreshed = true
		case errors.Is(err, gwerrors.ErrNoRefreshCredential):
			slog.Debug("DISPATCHER", "message", "no refresh token, sending the current access token", "sessionID", d.sessionID)
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			return err
		default:
			slog.Info("DISPATCHER", "message", "refresh before expiry failed, sending the current access token", "sessionID", d.sessionID, "error", err)
			refreshed = true
		}
	}

	// attempt 1
	res, err := d.attempt(ctx, r, body, token)
	if err != nil {
		return err
	}
	if res.status == http.StatusUnauthorized && !refreshed {
		fresh, err := d.coordinator.Refresh(ctx, token)
		if err != nil {
			return d.refreshFailed(ctx, errorFromResponse(res), err)
		}
		// attempt 2 is terminal whatever its outcome
		res, err = d.attempt(ctx, r, body, fresh)
		if err != nil {
			return err
		}
	}
	if res.status == http.StatusUnauthorized {
		slog.Info("DISPATCHER", "message", "access token rejected after refresh, ending session", "sessionID", d.sessionID, "path", r.Path)
		d.invalidate(ctx)
		return errorFromResponse(res)
	}
	if !res.success() {
		return errorFromResponse(res)
	}
	return decode(res, out)
}

// refreshFailed ends the session unless the caller gave up waiting for the refresh.
func (d *Dispatcher) refreshFailed(ctx context.Context, apiErr *gwerrors.APIError, reason error) error {
	if ctx.Err() != nil && errors.Is(reason, ctx.Err()) {
		return reason
	}
	slog.Info("DISPATCHER", "message", "refresh failed, ending session", "sessionID", d.sessionID, "reason", reason)
	d.invalidate(ctx)
	apiErr.Status = http.StatusUnauthorized
	apiErr.Err = reason
	return apiErr
}

func (d *Dispatcher) invalidate(ctx context.Context) {
	err := d.coordinator.Invalidate(context.WithoutCancel(ctx))
	if err != nil {
		slog.Error("DISPATCHER", "message", "invalidating the session failed", "sessionID", d.sessionID, "error", err)
	}
}

func (d *Dispatcher) accessToken(ctx context.Context) (string, error) {
	token, err := d.tokens.GetAccessToken(ctx)
	if err != nil {
		if errors.Is(err, gwerrors.ErrTokenNotFound) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (d *Dispatcher) attempt(ctx context.Context, r Request, body []byte, token string) (response, error) {
	target := d.baseURL.JoinPath(r.Path)
	if len(r.Query) > 0 {
		target.RawQuery = r.Query.Encode()
	}
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), reader)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if requestID := utils.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	if traceparent := utils.TraceparentFromContext(ctx); traceparent != "" {
		req.Header.Set("sentry-trace", traceparent)
	}
	for key, values := range r.Headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if token != "" {
		models.CredentialPair{AccessToken: token}.Token().SetAuthHeader(req)
	}

	res, err := d.client.Do(req)
	if err != nil {
		return response{}, &gwerrors.TransportError{Method: r.Method, URL: r.Path, Err: err}
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return response{}, &gwerrors.TransportError{Method: r.Method, URL: r.Path, Err: err}
	}
	slog.Debug("DISPATCHER", "message", "backend responded", "sessionID", d.sessionID, "method", r.Method, "path", r.Path, "status", res.StatusCode)
	return response{status: res.StatusCode, body: raw}, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("cannot encode the request body: %w", err)
		}
		return raw, nil
	}
}

func decode(res response, out any) error {
	if res.status == http.StatusNoContent || out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	err := json.Unmarshal(res.body, out)
	if err != nil {
		return fmt.Errorf("cannot decode the response body: %w", err)
	}
	return nil
}

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

// errorFromResponse reads the {detail} payload of the backend, detail is usually a string
// but validation errors carry a list.
func errorFromResponse(res response) *gwerrors.APIError {
	payload := errorPayload{}
	if err := json.Unmarshal(res.body, &payload); err != nil || len(payload.Detail) == 0 {
		return gwerrors.NewAPIError(res.status, "")
	}
	var message string
	if err := json.Unmarshal(payload.Detail, &message); err == nil {
		return gwerrors.NewAPIError(res.status, message)
	}
	var validation []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &validation); err == nil && len(validation) > 0 && validation[0].Msg != "" {
		return gwerrors.NewAPIError(res.status, validation[0].Msg)
	}
	return gwerrors.NewAPIError(res.status, "")
}

// Do sends the request and decodes the response into a new T.
func Do[T any](ctx context.Context, d *Dispatcher, r Request) (T, error) {
	var out T
	err := d.Send(ctx, r, &out)
	return out, err
}

type DispatcherOption func(*Dispatcher) error

func WithAPIBaseURL(baseURL *url.URL) DispatcherOption {
	return func(d *Dispatcher) error {
		if baseURL == nil {
			return fmt.Errorf("the API base URL cannot be nil")
		}
		d.baseURL = baseURL
		return nil
	}
}

func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *Dispatcher) error {
		d.client = client
		return nil
	}
}

func WithTokenReader(tokens TokenReader) DispatcherOption {
	return func(d *Dispatcher) error {
		d.tokens = tokens
		return nil
	}
}

func WithCoordinator(coordinator RefreshCoordinator) DispatcherOption {
	return func(d *Dispatcher) error {
		d.coordinator = coordinator
		return nil
	}
}

// WithExpiryMargin enables refreshing JWT access tokens that expire within margin before sending them.
func WithExpiryMargin(margin time.Duration) DispatcherOption {
	return func(d *Dispatcher) error {
		if margin < 0 {
			return fmt.Errorf("invalid expiry margin (%s)", margin)
		}
		d.expiryMargin = margin
		return nil
	}
}

// WithSessionID sets the session ID used in log records.
func WithSessionID(sessionID string) DispatcherOption {
	return func(d *Dispatcher) error {
		d.sessionID = sessionID
		return nil
	}
}

func NewDispatcher(options ...DispatcherOption) (*Dispatcher, error) {
	d := Dispatcher{client: &http.Client{Timeout: defaultRequestTimeout}}
	for _, opt := range options {
		err := opt(&d)
		if err != nil {
			return &Dispatcher{}, err
		}
	}
	if d.baseURL == nil {
		return &Dispatcher{}, fmt.Errorf("API base URL not initialized")
	}
	if d.client == nil {
		return &Dispatcher{}, fmt.Errorf("http client not initialized")
	}
	if d.tokens == nil {
		return &Dispatcher{}, fmt.Errorf("token reader not initialized")
	}
	if d.coordinator == nil {
		return &Dispatcher{}, fmt.Errorf("refresh coordinator not initialized")
	}
	return &d, nil
}
