package tokenrefresher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRefresher(t *testing.T, handler http.HandlerFunc) (*HTTPRefresher, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	baseURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	refresher, err := NewHTTPRefresher(WithAPIBaseURL(baseURL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return refresher, srv
}

func TestHTTPRefresherSuccess(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body := refreshRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "def456", body.RefreshToken)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "new", "token_type": "bearer"}`))
	})

	pair, err := refresher.Refresh(context.Background(), "def456")

	require.NoError(t, err)
	assert.Equal(t, models.CredentialPair{AccessToken: "new"}, pair)
}

func TestHTTPRefresherRotation(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "new", "refresh_token": "rotated"}`))
	})

	pair, err := refresher.Refresh(context.Background(), "def456")

	require.NoError(t, err)
	assert.Equal(t, models.CredentialPair{AccessToken: "new", RefreshToken: "rotated"}, pair)
}

func TestHTTPRefresherRejected(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Invalid refresh token"}`))
	})

	_, err := refresher.Refresh(context.Background(), "def456")

	assert.ErrorIs(t, err, gwerrors.ErrRefreshRejected)
	assert.ErrorContains(t, err, "Invalid refresh token")
}

func TestHTTPRefresherMalformedResponse(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type": "bearer"}`))
	})

	_, err := refresher.Refresh(context.Background(), "def456")

	assert.ErrorIs(t, err, gwerrors.ErrRefreshRejected)
}

func TestHTTPRefresherTransportError(t *testing.T) {
	refresher, srv := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := refresher.Refresh(context.Background(), "def456")

	assert.ErrorIs(t, err, gwerrors.ErrTransport)
}

func TestNewHTTPRefresherRequiresURL(t *testing.T) {
	_, err := NewHTTPRefresher()
	assert.ErrorContains(t, err, "refresh URL not initialized")

	_, err = NewHTTPRefresher(WithAPIBaseURL(nil))
	assert.Error(t, err)
}
