package tokenrefresher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
)

const refreshPath = "/auth/refresh"

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the body of a successful refresh, refresh_token is only sent when rotated
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Type         string `json:"token_type"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HTTPRefresher exchanges a refresh token at the backend refresh endpoint.
type HTTPRefresher struct {
	client     *http.Client
	refreshURL string
}

func (h *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (models.CredentialPair, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return models.CredentialPair{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.refreshURL, bytes.NewReader(body))
	if err != nil {
		return models.CredentialPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	res, err := h.client.Do(req)
	if err != nil {
		return models.CredentialPair{}, &gwerrors.TransportError{Method: req.Method, URL: h.refreshURL, Err: err}
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return models.CredentialPair{}, &gwerrors.TransportError{Method: req.Method, URL: h.refreshURL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail := errorResponse{}
		_ = json.Unmarshal(raw, &detail)
		if detail.Detail == "" {
			return models.CredentialPair{}, fmt.Errorf("%w: status %d", gwerrors.ErrRefreshRejected, res.StatusCode)
		}
		return models.CredentialPair{}, fmt.Errorf("%w: status %d: %s", gwerrors.ErrRefreshRejected, res.StatusCode, detail.Detail)
	}
	token := tokenResponse{}
	err = json.Unmarshal(raw, &token)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: cannot decode the refresh response: %v", gwerrors.ErrRefreshRejected, err)
	}
	if token.AccessToken == "" {
		return models.CredentialPair{}, fmt.Errorf("%w: the refresh response has no access token", gwerrors.ErrRefreshRejected)
	}
	return models.CredentialPair{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}

type HTTPRefresherOption func(*HTTPRefresher) error

func WithAPIBaseURL(baseURL *url.URL) HTTPRefresherOption {
	return func(h *HTTPRefresher) error {
		if baseURL == nil {
			return fmt.Errorf("the API base URL cannot be nil")
		}
		h.refreshURL = baseURL.JoinPath(refreshPath).String()
		return nil
	}
}

func WithHTTPClient(client *http.Client) HTTPRefresherOption {
	return func(h *HTTPRefresher) error {
		h.client = client
		return nil
	}
}

func NewHTTPRefresher(options ...HTTPRefresherOption) (*HTTPRefresher, error) {
	h := HTTPRefresher{client: http.DefaultClient}
	for _, opt := range options {
		err := opt(&h)
		if err != nil {
			return &HTTPRefresher{}, err
		}
	}
	if h.refreshURL == "" {
		return &HTTPRefresher{}, fmt.Errorf("refresh URL not initialized")
	}
	if h.client == nil {
		return &HTTPRefresher{}, fmt.Errorf("http client not initialized")
	}
	return &h, nil
}
