package sessions

import (
	"time"

	"github.com/bulletinboard/board-gateway/internal/models"
)

type SessionMaker interface {
	NewSession() (*Session, error)
	SessionWithID(id string) *Session
}

type SessionMakerImpl struct {
	idGenerator models.IDGenerator
	idleTTL     time.Duration
	maxTTL      time.Duration
}

func (sm *SessionMakerImpl) NewSession() (*Session, error) {
	id, err := sm.idGenerator.ID()
	if err != nil {
		return &Session{}, err
	}
	return sm.SessionWithID(id), nil
}

// SessionWithID makes a session for an ID issued earlier, e.g. before the gateway restarted.
func (sm *SessionMakerImpl) SessionWithID(id string) *Session {
	session := Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		idleTTL:   sm.idleTTL,
		maxTTL:    sm.maxTTL,
	}
	session.Touch()
	return &session
}

type SessionMakerOption func(*SessionMakerImpl) error

func WithIdleSessionTTL(ttl time.Duration) SessionMakerOption {
	return func(sm *SessionMakerImpl) error {
		sm.idleTTL = ttl
		return nil
	}
}

func WithMaxSessionTTL(ttl time.Duration) SessionMakerOption {
	return func(sm *SessionMakerImpl) error {
		sm.maxTTL = ttl
		return nil
	}
}

func WithIDGenerator(generator models.IDGenerator) SessionMakerOption {
	return func(sm *SessionMakerImpl) error {
		sm.idGenerator = generator
		return nil
	}
}

func NewSessionMaker(options ...SessionMakerOption) SessionMaker {
	sm := SessionMakerImpl{idGenerator: models.NewRandomGenerator(24)}
	for _, opt := range options {
		opt(&sm)
	}
	return &sm
}
