// Package tokenrefresher coordinates refreshing the access token of a session.
package tokenrefresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
)

const (
	defaultRefreshTimeout time.Duration = 10 * time.Second
	// settleTimeout bounds the store writes after a refresh, independent of the refresh timeout
	settleTimeout time.Duration = 5 * time.Second
)

// Refresher exchanges a refresh token for a new credential pair. An empty refresh token in
// the result means the refresh token was not rotated.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.CredentialPair, error)
}

// refreshCall is the handle of the refresh in flight. token and err are written once
// before done is closed. clearOnFailure is guarded by the coordinator lock.
type refreshCall struct {
	done           chan struct{}
	token          string
	err            error
	clearOnFailure bool
}

func (call *refreshCall) wait(ctx context.Context) (string, error) {
	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Coordinator guarantees that at most one refresh per session is in flight. It is Idle when
// inflight is nil and Refreshing otherwise, every caller that asks for a refresh while
// Refreshing receives the outcome of the same call.
type Coordinator struct {
	sessionID string
	store     models.CredentialStore
	refresher Refresher
	timeout   time.Duration
	metrics   *Metrics

	lock     sync.Mutex
	inflight *refreshCall
	// generation changes on every Invalidate so that a refresh which settles after a
	// logout does not store its tokens
	generation uint64
}

// Refresh returns a fresh access token. stale is the access token the caller was rejected
// with, when the store already holds another one it is returned without a network call.
// Any failure clears both tokens of the session.
func (c *Coordinator) Refresh(ctx context.Context, stale string) (string, error) {
	return c.refresh(ctx, stale, false)
}

// RefreshBeforeExpiry refreshes an access token that is still accepted but expires soon.
// Without a refresh token it returns ErrNoRefreshCredential and leaves the store alone. A
// failed refresh keeps the access token, a rejected refresh token is dropped. When a Refresh
// joins the same call its failure clears both tokens as usual.
func (c *Coordinator) RefreshBeforeExpiry(ctx context.Context, stale string) (string, error) {
	return c.refresh(ctx, stale, true)
}

func (c *Coordinator) refresh(ctx context.Context, stale string, beforeExpiry bool) (string, error) {
	c.lock.Lock()
	if call := c.inflight; call != nil {
		if !beforeExpiry {
			call.clearOnFailure = true
		}
		c.lock.Unlock()
		c.metrics.joined()
		slog.Debug("TOKEN REFRESH", "message", "joining refresh in flight", "sessionID", c.sessionID)
		return call.wait(ctx)
	}

	current, err := c.store.GetAccessToken(ctx)
	switch {
	case err == nil && current != stale:
		c.lock.Unlock()
		return current, nil
	case err != nil && !errors.Is(err, gwerrors.ErrTokenNotFound):
		c.lock.Unlock()
		return "", err
	}

	refreshToken, err := c.store.GetRefreshToken(ctx)
	if err != nil {
		defer c.lock.Unlock()
		if !errors.Is(err, gwerrors.ErrTokenNotFound) {
			return "", err
		}
		if beforeExpiry {
			return "", gwerrors.ErrNoRefreshCredential
		}
		c.metrics.observe(outcomeNoCredential)
		slog.Info("TOKEN REFRESH", "message", "no refresh token, ending session", "sessionID", c.sessionID)
		if clearErr := c.store.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			slog.Error("TOKEN REFRESH", "message", "clearing credentials failed", "sessionID", c.sessionID, "error", clearErr)
		}
		return "", gwerrors.ErrNoRefreshCredential
	}

	call := &refreshCall{done: make(chan struct{}), clearOnFailure: !beforeExpiry}
	c.inflight = call
	generation := c.generation
	c.lock.Unlock()

	// the call is detached from the caller so that a cancelled caller does not fail the others
	go c.run(context.WithoutCancel(ctx), call, generation, refreshToken)
	return call.wait(ctx)
}

func (c *Coordinator) run(ctx context.Context, call *refreshCall, generation uint64, refreshToken string) {
	refreshCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var pair models.CredentialPair
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("token refresh panicked: %v", r)
		}
		// the refresh context may be done already, the store writes get their own bound
		settleCtx, cancelSettle := context.WithTimeout(ctx, settleTimeout)
		defer cancelSettle()
		c.settle(settleCtx, call, generation, pair, err)
	}()
	slog.Debug("TOKEN REFRESH", "message", "refreshing access token", "sessionID", c.sessionID)
	pair, err = c.refresher.Refresh(refreshCtx, refreshToken)
}

// settle writes the outcome to the store, returns the coordinator to Idle and releases
// every waiter. The store is updated before any waiter can observe the result.
func (c *Coordinator) settle(ctx context.Context, call *refreshCall, generation uint64, pair models.CredentialPair, err error) {
	c.lock.Lock()
	defer close(call.done)
	defer c.lock.Unlock()

	if err == nil && generation != c.generation {
		err = fmt.Errorf("%w: the session was logged out during the refresh", gwerrors.ErrRefreshRejected)
	}
	if err == nil {
		err = c.store.SetAccessToken(ctx, pair.AccessToken)
	}
	if err == nil && pair.RefreshToken != "" {
		err = c.store.SetRefreshToken(ctx, pair.RefreshToken)
	}

	if err != nil {
		c.metrics.observe(outcomeOf(err))
		var clearErr error
		switch {
		case call.clearOnFailure:
			slog.Info("TOKEN REFRESH", "message", "refresh failed, ending session", "sessionID", c.sessionID, "error", err)
			clearErr = c.store.Clear(ctx)
		case errors.Is(err, gwerrors.ErrRefreshRejected):
			slog.Info("TOKEN REFRESH", "message", "refresh token rejected, keeping the access token", "sessionID", c.sessionID, "error", err)
			clearErr = c.store.SetRefreshToken(ctx, "")
		default:
			slog.Info("TOKEN REFRESH", "message", "refresh before expiry failed, keeping the tokens", "sessionID", c.sessionID, "error", err)
		}
		if clearErr != nil {
			slog.Error("TOKEN REFRESH", "message", "clearing credentials failed", "sessionID", c.sessionID, "error", clearErr)
		}
		call.err = err
	} else {
		c.metrics.observe(outcomeSuccess)
		slog.Debug("TOKEN REFRESH", "message", "access token refreshed", "sessionID", c.sessionID, "rotated", pair.RefreshToken != "")
		call.token = pair.AccessToken
	}
	c.inflight = nil
}

// Invalidate ends the session by clearing both tokens. A refresh in flight will not
// store its result.
func (c *Coordinator) Invalidate(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.generation++
	return c.store.Clear(ctx)
}

// Refreshing reports whether a refresh is in flight.
func (c *Coordinator) Refreshing() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.inflight != nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, gwerrors.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return outcomeTransport
	case errors.Is(err, gwerrors.ErrRefreshRejected):
		return outcomeRejected
	default:
		return outcomeError
	}
}

type CoordinatorOption func(*Coordinator) error

func WithStore(store models.CredentialStore) CoordinatorOption {
	return func(c *Coordinator) error {
		c.store = store
		return nil
	}
}

func WithRefresher(refresher Refresher) CoordinatorOption {
	return func(c *Coordinator) error {
		c.refresher = refresher
		return nil
	}
}

func WithRefreshTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) error {
		if timeout <= 0 {
			return fmt.Errorf("invalid refresh timeout (%s)", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

func WithMetrics(metrics *Metrics) CoordinatorOption {
	return func(c *Coordinator) error {
		c.metrics = metrics
		return nil
	}
}

// WithSessionID sets the session ID used in log records.
func WithSessionID(sessionID string) CoordinatorOption {
	return func(c *Coordinator) error {
		c.sessionID = sessionID
		return nil
	}
}

func NewCoordinator(options ...CoordinatorOption) (*Coordinator, error) {
	c := Coordinator{timeout: defaultRefreshTimeout}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return &Coordinator{}, err
		}
	}
	if c.store == nil {
		return &Coordinator{}, fmt.Errorf("credential store not initialized")
	}
	if c.refresher == nil {
		return &Coordinator{}, fmt.Errorf("refresher not initialized")
	}
	return &c, nil
}
