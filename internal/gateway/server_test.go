package gateway

import (
	"encoding/json"
	"fmt"
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
	"github.com/bulletinboard/board-gateway/internal/sessions"
	"github.com/bulletinboard/board-gateway/internal/views"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID = "5f0c6a4e-2b1d-4c7e-9a55-0d9b8f3f1a21"
	testPostID = "0d4f3a2b-1c5e-4f6a-9b8c-7d6e5f4a3b21"
)

// fakeBoard is the board API: it accepts the access tokens in valid and refreshes "def456"
// into "ghi789".
type fakeBoard struct {
	lock         sync.Mutex
	valid        map[string]bool
	requestIDs   []string
	refreshCalls atomic.Int32
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{valid: map[string]bool{"abc123": true}}
}

func (b *fakeBoard) expire(token string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.valid, token)
}

func (b *fakeBoard) lastRequestID() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.requestIDs) == 0 {
		return ""
	}
	return b.requestIDs[len(b.requestIDs)-1]
}

func (b *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	authorized := b.valid[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	b.requestIDs = append(b.requestIDs, r.Header.Get("X-Request-ID"))
	b.lock.Unlock()
	w.Header().Set("Content-Type", "application/json")
	unauthorized := func() {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Invalid authentication credentials"}`)
	}
	switch {
	case r.URL.Path == "/auth/refresh":
		b.refreshCalls.Add(1)
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != "def456" {
			unauthorized()
			return
		}
		b.lock.Lock()
		b.valid["ghi789"] = true
		b.lock.Unlock()
		fmt.Fprint(w, `{"access_token": "ghi789", "token_type": "bearer"}`)
	case !authorized:
		unauthorized()
	case r.URL.Path == "/auth/me":
		fmt.Fprintf(w, `{"id": %q, "email": "ada@example.org", "name": "Ada", "avatar_url": null, "bio": null, "created_at": "2024-03-04T10:30:00", "last_login": "2024-03-05T08:00:00"}`, testUserID)
	case r.URL.Path == "/api/posts" && r.Method == http.MethodGet:
		fmt.Fprintf(w, `[{"id": %q, "content": "late", "tags": [], "created_at": "2024-03-05T09:00:00", "is_edited": false, "like_count": 0, "is_liked": false},
			{"id": %q, "content": "early", "tags": [], "created_at": "2024-03-04T09:00:00", "is_edited": false, "like_count": 0, "is_liked": false}]`, testPostID, testPostID)
	case r.URL.Path == "/api/posts/"+testPostID && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail": "Not found"}`)
	}
}

type testGateway struct {
	e       *echo.Echo
	server  *Server
	backend *httptest.Server
	cookie  *http.Cookie
}

func newTestGateway(t *testing.T, board http.Handler) *testGateway {
	backend := httptest.NewServer(board)
	t.Cleanup(backend.Close)
	baseURL, err := url.Parse(backend.URL)
	require.NoError(t, err)
	adapter, err := db.NewMockRedisAdapter()
	require.NoError(t, err)
	registry, err := sessions.NewRegistry(
		sessions.WithCredentialRepository(adapter),
		sessions.WithAPIConfig(config.APIConfig{BaseURL: baseURL, RequestTimeout: 5 * time.Second, RefreshTimeout: 5 * time.Second}),
		sessions.WithLoginConfig(config.LoginConfig{ProviderPath: "/auth/google", LandingURL: "/", LoginPageURL: "/login"}),
		sessions.WithSessionConfig(config.SessionConfig{IdleSessionTTLSeconds: 3600, SweepInterval: time.Minute}),
	)
	require.NoError(t, err)
	server, err := NewServer(WithRegistry(registry), WithHealthChecker(adapter), WithVersion("v1.2.3"))
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Pre(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: RequestIDGenerator(models.ULIDGenerator{})}))
	tr, err := views.NewTemplateRenderer()
	require.NoError(t, err)
	tr.Register(e)
	server.RegisterHandlers(e, RequestIDToContext)
	return &testGateway{e: e, server: server, backend: backend}
}

func (g *testGateway) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if g.cookie != nil {
		req.AddCookie(g.cookie)
	}
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessions.SessionCookieName {
			if cookie.MaxAge < 0 {
				g.cookie = nil
			} else {
				g.cookie = cookie
			}
		}
	}
	return rec
}

func (g *testGateway) login(t *testing.T, refreshToken string) {
	rec := g.do(http.MethodGet, "/auth/callback?token=abc123&refresh_token="+refreshToken)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	require.NotNil(t, g.cookie)
}

func TestLoginRedirect(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())

	rec := g.do(http.MethodGet, "/auth/login")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, g.backend.URL+"/auth/google", rec.Header().Get(echo.HeaderLocation))
	assert.NotNil(t, g.cookie)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestCallbackThenMe(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	rec := g.do(http.MethodGet, "/auth/me")

	require.Equal(t, http.StatusOK, rec.Code)
	identity := models.Identity{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, "ada@example.org", identity.Email)
}

func TestCallbackFailureRedirectsToLogin(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())

	rec := g.do(http.MethodGet, "/auth/callback?token=forged&refresh_token=forged")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, http.StatusUnauthorized, g.do(http.MethodGet, "/auth/me").Code)
}

func TestMeWithoutLogin(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())

	rec := g.do(http.MethodGet, "/auth/me")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail": "Not authenticated", "login": "/auth/login"}`, rec.Body.String())
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	board := newFakeBoard()
	g := newTestGateway(t, board)
	g.login(t, "def456")
	board.expire("abc123")

	rec := g.do(http.MethodGet, "/api/posts?limit=10")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "late")
	assert.Equal(t, int32(1), board.refreshCalls.Load())
	assert.NotEmpty(t, board.lastRequestID())
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), board.lastRequestID())

	rec = g.do(http.MethodGet, "/api/posts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), board.refreshCalls.Load())
}

func TestRejectedRefreshEndsSession(t *testing.T) {
	board := newFakeBoard()
	g := newTestGateway(t, board)
	g.login(t, "revoked")
	board.expire("abc123")

	rec := g.do(http.MethodGet, "/api/posts")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail": "Invalid authentication credentials", "login": "/auth/login"}`, rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, g.do(http.MethodGet, "/auth/me").Code)
	assert.Equal(t, int32(1), board.refreshCalls.Load())
}

func TestBackendErrorsPassThrough(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	rec := g.do(http.MethodGet, "/api/users/"+testUserID)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail": "Not found"}`, rec.Body.String())
}

func TestInvalidParameters(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	for _, target := range []string{
		"/api/posts/not-a-uuid",
		"/api/posts?page=first",
		"/api/posts?date=05.03.2024",
		"/api/users/" + testUserID + "/weekly-reports?weeks=13",
		"/api/search?q=",
		"/api/feed?tz=Mars/Olympus",
	} {
		rec := g.do(http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestUnreachableBackend(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.backend.Close()

	rec := g.do(http.MethodGet, "/api/users")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDeletePost(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	rec := g.do(http.MethodDelete, "/api/posts/"+testPostID)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFeedGroupsByDay(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	rec := g.do(http.MethodGet, "/api/feed")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	later := strings.Index(body, `"2024-03-05"`)
	earlier := strings.Index(body, `"2024-03-04"`)
	require.True(t, later >= 0 && earlier >= 0, body)
	assert.Less(t, later, earlier)
}

func TestLogout(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	rec := g.do(http.MethodPost, "/auth/logout")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, g.cookie)
	assert.Equal(t, http.StatusUnauthorized, g.do(http.MethodGet, "/auth/me").Code)
}

func TestLogoutPage(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	g.login(t, "def456")

	rec := g.do(http.MethodGet, "/auth/logout")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/auth/login"`)
}

func TestHealthAndVersion(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())

	assert.Equal(t, http.StatusOK, g.do(http.MethodGet, "/health").Code)
	rec := g.do(http.MethodGet, "/version")
	assert.Equal(t, "v1.2.3", rec.Body.String())
}

func TestNewServerRequiresRegistry(t *testing.T) {
	_, err := NewServer()
	assert.ErrorContains(t, err, "session registry not initialized")
}

func TestRegisterHandlersKeepsCallerMiddlewares(t *testing.T) {
	g := newTestGateway(t, newFakeBoard())
	common := make([]echo.MiddlewareFunc, 1, 2)
	common[0] = RequestIDToContext

	g.server.RegisterHandlers(echo.New(), common...)

	assert.Nil(t, common[:2][1])
}
