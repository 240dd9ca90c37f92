package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/bulletinboard/board-gateway/internal/dispatcher"
	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
)

const identityPath = "/auth/me"

const (
	callbackTokenParam        = "token"
	callbackRefreshTokenParam = "refresh_token"
)

// Sender sends a request on behalf of the session.
type Sender interface {
	Send(ctx context.Context, r dispatcher.Request, out any) error
}

// Invalidator ends the session by clearing its credentials.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CallbackResult tells the caller where to send the user after a login callback.
type CallbackResult struct {
	// RedirectTo is the landing page on success and the login page on failure
	RedirectTo string
}

// Bootstrapper seeds the credential store and verifies the credentials by fetching the
// identity of the user. The session is authenticated only while the identity is known.
type Bootstrapper struct {
	sessionID   string
	store       models.CredentialStore
	sender      Sender
	invalidator Invalidator
	landingURL  string
	loginURL    string

	lock     sync.RWMutex
	identity *models.Identity
}

// Start verifies the stored access token, if any. A failed verification forgets the identity
// but leaves the tokens alone, an unrecoverable 401 has already cleared them on its way.
func (b *Bootstrapper) Start(ctx context.Context) error {
	_, err := b.store.GetAccessToken(ctx)
	if err != nil {
		b.setIdentity(nil)
		if errors.Is(err, gwerrors.ErrTokenNotFound) {
			return nil
		}
		return err
	}
	return b.verify(ctx)
}

// HandleCallback stores the credentials carried by a login redirect and verifies them.
// Without a token parameter the store is left unchanged and the user goes to the landing page.
func (b *Bootstrapper) HandleCallback(ctx context.Context, callbackURL *url.URL) (CallbackResult, error) {
	query := callbackURL.Query()
	token := query.Get(callbackTokenParam)
	refreshToken := query.Get(callbackRefreshTokenParam)
	result := CallbackResult{RedirectTo: b.landingURL}

	if token == "" {
		slog.Info("BOOTSTRAP", "message", "login callback without token", "sessionID", b.sessionID)
		return result, nil
	}

	err := b.store.SetAccessToken(ctx, token)
	if err == nil {
		// the pair is replaced as a whole, a missing refresh token clears the previous one
		err = b.store.SetRefreshToken(ctx, refreshToken)
	}
	if err == nil {
		err = b.verify(ctx)
	}
	if err != nil {
		slog.Info("BOOTSTRAP", "message", "login callback could not be verified", "sessionID", b.sessionID, "error", err)
		b.end(ctx)
		result.RedirectTo = b.loginURL
		return result, err
	}
	slog.Info("BOOTSTRAP", "message", "login completed", "sessionID", b.sessionID, "refreshToken", refreshToken != "")
	return result, nil
}

func (b *Bootstrapper) verify(ctx context.Context) error {
	identity := models.Identity{}
	err := b.sender.Send(ctx, dispatcher.Request{Method: http.MethodGet, Path: identityPath}, &identity)
	if err != nil {
		b.setIdentity(nil)
		slog.Info("BOOTSTRAP", "message", "identity verification failed", "sessionID", b.sessionID, "error", err)
		return fmt.Errorf("cannot verify the session: %w", err)
	}
	b.setIdentity(&identity)
	return nil
}

// Identity returns the verified user of the session.
func (b *Bootstrapper) Identity() (models.Identity, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.identity == nil {
		return models.Identity{}, false
	}
	return *b.identity, true
}

// Authenticated reports whether an access token is stored and its identity was verified.
func (b *Bootstrapper) Authenticated(ctx context.Context) bool {
	if _, ok := b.Identity(); !ok {
		return false
	}
	_, err := b.store.GetAccessToken(ctx)
	return err == nil
}

// Logout clears the credentials and the identity, it is idempotent.
func (b *Bootstrapper) Logout(ctx context.Context) error {
	b.setIdentity(nil)
	return b.invalidator.Invalidate(ctx)
}

func (b *Bootstrapper) end(ctx context.Context) {
	b.setIdentity(nil)
	if err := b.invalidator.Invalidate(context.WithoutCancel(ctx)); err != nil {
		slog.Error("BOOTSTRAP", "message", "clearing credentials failed", "sessionID", b.sessionID, "error", err)
	}
}

func (b *Bootstrapper) setIdentity(identity *models.Identity) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.identity = identity
}

type BootstrapperOption func(*Bootstrapper) error

func WithCredentialStore(store models.CredentialStore) BootstrapperOption {
	return func(b *Bootstrapper) error {
		b.store = store
		return nil
	}
}

func WithSender(sender Sender) BootstrapperOption {
	return func(b *Bootstrapper) error {
		b.sender = sender
		return nil
	}
}

func WithInvalidator(invalidator Invalidator) BootstrapperOption {
	return func(b *Bootstrapper) error {
		b.invalidator = invalidator
		return nil
	}
}

func WithRedirects(landingURL, loginURL string) BootstrapperOption {
	return func(b *Bootstrapper) error {
		b.landingURL = landingURL
		b.loginURL = loginURL
		return nil
	}
}

// WithBootstrapSessionID sets the session ID used in log records.
func WithBootstrapSessionID(sessionID string) BootstrapperOption {
	return func(b *Bootstrapper) error {
		b.sessionID = sessionID
		return nil
	}
}

func NewBootstrapper(options ...BootstrapperOption) (*Bootstrapper, error) {
	b := Bootstrapper{landingURL: "/", loginURL: "/login"}
	for _, opt := range options {
		err := opt(&b)
		if err != nil {
			return &Bootstrapper{}, err
		}
	}
	if b.store == nil {
		return &Bootstrapper{}, fmt.Errorf("credential store not initialized")
	}
	if b.sender == nil {
		return &Bootstrapper{}, fmt.Errorf("sender not initialized")
	}
	if b.invalidator == nil {
		return &Bootstrapper{}, fmt.Errorf("invalidator not initialized")
	}
	return &b, nil
}
