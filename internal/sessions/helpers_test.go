package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bulletinboard/board-gateway/internal/config"
	"github.com/bulletinboard/board-gateway/internal/db"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/stretchr/testify/require"
)

const testIdentity = `{
	"id": "5f0c6a4e-2b1d-4c7e-9a55-0d9b8f3f1a21",
	"email": "ada@example.org",
	"name": "Ada",
	"avatar_url": null,
	"bio": null,
	"created_at": "2024-03-04T10:30:00.123456",
	"last_login": "2024-03-05T08:00:00"
}`

// fakeBackend answers /auth/me for the access tokens in valid and refreshes "def456".
type fakeBackend struct {
	lock     sync.Mutex
	valid    map[string]bool
	meStatus int
	meCalls  atomic.Int32
}

func newFakeBackend(valid ...string) *fakeBackend {
	b := &fakeBackend{valid: map[string]bool{}}
	for _, token := range valid {
		b.valid[token] = true
	}
	return b
}

func (b *fakeBackend) setMeStatus(status int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.meStatus = status
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	meStatus := b.meStatus
	authorized := b.valid[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	b.lock.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/me":
		b.meCalls.Add(1)
		if meStatus != 0 {
			w.WriteHeader(meStatus)
			_, _ = w.Write([]byte(`{"detail": "Internal server error"}`))
			return
		}
		if !authorized {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Invalid authentication credentials"}`))
			return
		}
		_, _ = w.Write([]byte(testIdentity))
	case "/auth/refresh":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Invalid refresh token"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestRegistry(t *testing.T, backend http.Handler, options ...RegistryOption) (*Registry, *db.RedisAdapter) {
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	baseURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	adapter, err := db.NewMockRedisAdapter()
	require.NoError(t, err)
	options = append([]RegistryOption{
		WithCredentialRepository(adapter),
		WithHTTPClient(srv.Client()),
		WithAPIConfig(config.APIConfig{
			BaseURL:        baseURL,
			RequestTimeout: 5 * time.Second,
			RefreshTimeout: 5 * time.Second,
		}),
		WithLoginConfig(config.LoginConfig{
			ProviderPath: "/auth/google",
			LandingURL:   "/",
			LoginPageURL: "/login",
		}),
		WithSessionConfig(config.SessionConfig{
			IdleSessionTTLSeconds: 3600,
			MaxSessionTTLSeconds:  86400,
			SweepInterval:         time.Minute,
		}),
	}, options...)
	registry, err := NewRegistry(options...)
	require.NoError(t, err)
	return registry, adapter
}

func credentialsOf(t *testing.T, session *Session) models.CredentialPair {
	pair := models.CredentialPair{}
	ctx := context.Background()
	if token, err := session.Credentials.GetAccessToken(ctx); err == nil {
		pair.AccessToken = token
	}
	if token, err := session.Credentials.GetRefreshToken(ctx); err == nil {
		pair.RefreshToken = token
	}
	return pair
}
