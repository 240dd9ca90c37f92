package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bulletinboard/board-gateway/internal/config"
	"github.com/bulletinboard/board-gateway/internal/credentials"
	"github.com/bulletinboard/board-gateway/internal/dispatcher"
	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/bulletinboard/board-gateway/internal/tokenrefresher"
	"github.com/bulletinboard/board-gateway/internal/utils"
	"github.com/go-co-op/gocron"
	"github.com/labstack/echo/v4"
)

const sweepTimeout time.Duration = 30 * time.Second

// Registry keeps the sessions of this gateway process. Credentials live in the credential
// repository under the session ID so that a session survives a restart of the gateway.
type Registry struct {
	lock     sync.RWMutex
	sessions map[string]*Session

	maker          SessionMaker
	repo           models.CredentialRepository
	refresher      tokenrefresher.Refresher
	metrics        *tokenrefresher.Metrics
	httpClient     *http.Client
	apiConfig      config.APIConfig
	loginConfig    config.LoginConfig
	sweepInterval  time.Duration
	cookieTemplate func() http.Cookie
	scheduler      *gocron.Scheduler
}

// Middleware loads the session of the request or creates a new one and stores it in the
// echo context under SessionCtxKey.
func (r *Registry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			cookieID := ""
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				cookieID = cookie.Value
			}
			session, created, err := r.Load(ctx, cookieID)
			if err != nil {
				slog.Error(
					"SESSION MIDDLEWARE",
					"message",
					"could not load session",
					"error",
					err,
					"requestID",
					utils.GetRequestID(c),
				)
				return err
			}
			if session.ID != cookieID {
				cookie := r.Cookie(session)
				c.SetCookie(&cookie)
			}
			slog.Debug(
				"SESSION MIDDLEWARE",
				"message",
				"session loaded",
				"sessionID",
				session.ID,
				"created",
				created,
				"requestID",
				utils.GetRequestID(c),
			)
			c.Set(SessionCtxKey, session)
			return next(c)
		}
	}
}

// Load returns the live session for id. Unknown ids that still own credentials are adopted
// and verified. Expired sessions are ended and, like any other unknown id, replaced by a
// fresh session.
func (r *Registry) Load(ctx context.Context, id string) (session *Session, created bool, err error) {
	if id != "" {
		r.lock.RLock()
		known, found := r.sessions[id]
		r.lock.RUnlock()
		switch {
		case found && !known.Expired():
			known.Touch()
			return known, false, nil
		case found:
			r.end(ctx, known)
		default:
			pair, err := r.repo.GetCredentials(ctx, id)
			if err != nil {
				return &Session{}, false, err
			}
			if pair.AccessToken != "" || pair.RefreshToken != "" {
				session, err := r.add(ctx, r.maker.SessionWithID(id))
				return session, true, err
			}
		}
	}
	session, err = r.Create(ctx)
	return session, true, err
}

// Create makes a new session and bootstraps it.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	session, err := r.maker.NewSession()
	if err != nil {
		return &Session{}, err
	}
	return r.add(ctx, session)
}

func (r *Registry) add(ctx context.Context, session *Session) (*Session, error) {
	err := r.build(session)
	if err != nil {
		return &Session{}, err
	}
	r.lock.Lock()
	if existing, found := r.sessions[session.ID]; found && !existing.Expired() {
		r.lock.Unlock()
		existing.Touch()
		return existing, nil
	}
	r.sessions[session.ID] = session
	r.lock.Unlock()
	slog.Info("NEW SESSION", "session", session.String())

	if err := session.Bootstrapper.Start(ctx); err != nil {
		slog.Info("NEW SESSION", "message", "session could not be verified", "sessionID", session.ID, "error", err)
	}
	return session, nil
}

// build wires the credential store, refresh coordinator, dispatcher and bootstrapper of a session.
func (r *Registry) build(session *Session) error {
	store, err := credentials.NewStore(credentials.WithNamespace(session.ID), credentials.WithRepository(r.repo))
	if err != nil {
		return err
	}
	coordinator, err := tokenrefresher.NewCoordinator(
		tokenrefresher.WithStore(store),
		tokenrefresher.WithRefresher(r.refresher),
		tokenrefresher.WithRefreshTimeout(r.apiConfig.RefreshTimeout),
		tokenrefresher.WithMetrics(r.metrics),
		tokenrefresher.WithSessionID(session.ID),
	)
	if err != nil {
		return err
	}
	d, err := dispatcher.NewDispatcher(
		dispatcher.WithAPIBaseURL(r.apiConfig.BaseURL),
		dispatcher.WithHTTPClient(r.httpClient),
		dispatcher.WithTokenReader(store),
		dispatcher.WithCoordinator(coordinator),
		dispatcher.WithExpiryMargin(r.apiConfig.ExpiryMargin),
		dispatcher.WithSessionID(session.ID),
	)
	if err != nil {
		return err
	}
	bootstrapper, err := NewBootstrapper(
		WithCredentialStore(store),
		WithSender(d),
		WithInvalidator(coordinator),
		WithRedirects(r.loginConfig.LandingURL, r.loginConfig.LoginPageURL),
		WithBootstrapSessionID(session.ID),
	)
	if err != nil {
		return err
	}
	session.Credentials = store
	session.Coordinator = coordinator
	session.Dispatcher = d
	session.Bootstrapper = bootstrapper
	return nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, found := r.sessions[id]
	if !found || session.Expired() {
		return &Session{}, false
	}
	return session, true
}

// Remove forgets the session and clears its cookie, the credentials are cleared by logging out.
func (r *Registry) Remove(c echo.Context, id string) {
	r.lock.Lock()
	delete(r.sessions, id)
	r.lock.Unlock()
	cookie := r.cookieTemplate()
	cookie.MaxAge = -1
	c.SetCookie(&cookie)
}

// end forgets an expired session and clears its credentials so that its ID cannot be
// adopted again.
func (r *Registry) end(ctx context.Context, session *Session) {
	r.lock.Lock()
	if current, found := r.sessions[session.ID]; found && current == session {
		delete(r.sessions, session.ID)
	}
	r.lock.Unlock()
	if err := session.Coordinator.Invalidate(context.WithoutCancel(ctx)); err != nil {
		slog.Error("SESSION EXPIRY", "message", "clearing credentials failed", "sessionID", session.ID, "error", err)
	}
	slog.Info("SESSION EXPIRY", "message", "session expired", "sessionID", session.ID)
}

// Sweep ends expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.lock.RLock()
	expired := []*Session{}
	for _, session := range r.sessions {
		if session.Expired() {
			expired = append(expired, session)
		}
	}
	r.lock.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	for _, session := range expired {
		r.end(ctx, session)
	}
	if len(expired) > 0 {
		slog.Info("SESSION SWEEP", "message", "removed idle sessions", "removed", len(expired), "remaining", r.Len())
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.sessions)
}

// StartSweeping runs Sweep at the configured interval until StopSweeping is called.
func (r *Registry) StartSweeping() error {
	_, err := r.scheduler.Every(r.sweepInterval).WaitForSchedule().Do(r.Sweep)
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

func (r *Registry) StopSweeping() {
	r.scheduler.Stop()
}

func (r *Registry) Cookie(session *Session) http.Cookie {
	cookie := r.cookieTemplate()
	cookie.Value = session.ID
	return cookie
}

// FromContext returns the session the middleware stored in the echo context.
func FromContext(c echo.Context) (*Session, error) {
	sessionRaw := c.Get(SessionCtxKey)
	if sessionRaw == nil {
		return &Session{}, gwerrors.ErrSessionNotFound
	}
	session, ok := sessionRaw.(*Session)
	if !ok || session == nil {
		return &Session{}, gwerrors.ErrSessionNotFound
	}
	if session.Expired() {
		return &Session{}, gwerrors.ErrSessionExpired
	}
	return session, nil
}

type RegistryOption func(*Registry) error

func WithCredentialRepository(repo models.CredentialRepository) RegistryOption {
	return func(r *Registry) error {
		r.repo = repo
		return nil
	}
}

func WithRefresher(refresher tokenrefresher.Refresher) RegistryOption {
	return func(r *Registry) error {
		r.refresher = refresher
		return nil
	}
}

func WithMetrics(metrics *tokenrefresher.Metrics) RegistryOption {
	return func(r *Registry) error {
		r.metrics = metrics
		return nil
	}
}

func WithHTTPClient(client *http.Client) RegistryOption {
	return func(r *Registry) error {
		r.httpClient = client
		return nil
	}
}

func WithAPIConfig(c config.APIConfig) RegistryOption {
	return func(r *Registry) error {
		r.apiConfig = c
		if r.httpClient == nil {
			r.httpClient = &http.Client{Timeout: c.RequestTimeout}
		}
		return nil
	}
}

func WithLoginConfig(c config.LoginConfig) RegistryOption {
	return func(r *Registry) error {
		r.loginConfig = c
		return nil
	}
}

func WithSessionConfig(c config.SessionConfig) RegistryOption {
	return func(r *Registry) error {
		r.maker = NewSessionMaker(WithIdleSessionTTL(c.IdleTTL()), WithMaxSessionTTL(c.MaxTTL()))
		r.sweepInterval = c.SweepInterval
		secure := c.CookieSecure
		r.cookieTemplate = func() http.Cookie {
			return http.Cookie{
				Name:     SessionCookieName,
				Path:     "/",
				Secure:   secure,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			}
		}
		return nil
	}
}

func WithSessionMaker(maker SessionMaker) RegistryOption {
	return func(r *Registry) error {
		r.maker = maker
		return nil
	}
}

func NewRegistry(options ...RegistryOption) (*Registry, error) {
	r := Registry{
		sessions:      map[string]*Session{},
		sweepInterval: 5 * time.Minute,
		scheduler:     gocron.NewScheduler(time.UTC),
		cookieTemplate: func() http.Cookie {
			return http.Cookie{
				Name:     SessionCookieName,
				Path:     "/",
				Secure:   true,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode}
		},
	}
	for _, opt := range options {
		err := opt(&r)
		if err != nil {
			return &Registry{}, err
		}
	}
	if r.maker == nil {
		return &Registry{}, fmt.Errorf("session maker is not initialized")
	}
	if r.repo == nil {
		return &Registry{}, fmt.Errorf("credential repository is not initialized")
	}
	if r.apiConfig.BaseURL == nil {
		return &Registry{}, fmt.Errorf("API configuration is not initialized")
	}
	if r.apiConfig.RefreshTimeout <= 0 {
		return &Registry{}, fmt.Errorf("API refresh timeout is not initialized")
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: r.apiConfig.RequestTimeout}
	}
	if r.refresher == nil {
		refresher, err := tokenrefresher.NewHTTPRefresher(
			tokenrefresher.WithAPIBaseURL(r.apiConfig.BaseURL),
			tokenrefresher.WithHTTPClient(r.httpClient),
		)
		if err != nil {
			return &Registry{}, err
		}
		r.refresher = refresher
	}
	if r.sweepInterval <= 0 {
		return &Registry{}, fmt.Errorf("invalid session sweep interval (%s)", r.sweepInterval)
	}
	return &r, nil
}

// LoginURL is where the identity provider flow of the backend starts.
func (r *Registry) LoginURL() *url.URL {
	return r.apiConfig.BaseURL.JoinPath(r.loginConfig.ProviderPath)
}
