package sessions

import (
	"sync"
	"time"

	"github.com/bulletinboard/board-gateway/internal/credentials"
	"github.com/bulletinboard/board-gateway/internal/dispatcher"
	"github.com/bulletinboard/board-gateway/internal/tokenrefresher"
)

// Session is one browser session of the gateway together with its own credential store,
// refresh coordinator, dispatcher and bootstrapper.
type Session struct {
	ID string
	// UTC timestamp for when the session was created
	CreatedAt time.Time

	Credentials  *credentials.Store
	Coordinator  *tokenrefresher.Coordinator
	Dispatcher   *dispatcher.Dispatcher
	Bootstrapper *Bootstrapper

	lock      sync.Mutex
	expiresAt time.Time
	idleTTL   time.Duration
	maxTTL    time.Duration
}

func (s *Session) Expired() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return time.Now().UTC().After(s.expiresAt)
}

func (s *Session) ExpiresAt() time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.expiresAt
}

// Touch() extends the session by the idle TTL without going past the max TTL
func (s *Session) Touch() {
	s.lock.Lock()
	defer s.lock.Unlock()
	expiresAt := time.Now().UTC().Add(s.idleTTL)
	if s.maxTTL > 0 {
		maxExpiresAt := s.CreatedAt.Add(s.maxTTL)
		if expiresAt.After(maxExpiresAt) {
			expiresAt = maxExpiresAt
		}
	}
	s.expiresAt = expiresAt
}

func (s *Session) String() string {
	return "Session<ID: " + s.ID + ", ExpiresAt: " + s.ExpiresAt().Format(time.RFC3339) + ">"
}
