// Package credentials holds the access and refresh tokens of one browser session.
package credentials

import (
	"context"
	"fmt"

	"github.com/bulletinboard/board-gateway/internal/models"
)

// Store is the credential store of a single session. It reads and writes through a
// CredentialRepository under the session namespace and keeps no copy of the tokens.
type Store struct {
	namespace string
	repo      models.CredentialRepository
}

// GetAccessToken returns gwerrors.ErrTokenNotFound when no access token is stored.
func (s *Store) GetAccessToken(ctx context.Context) (string, error) {
	return s.repo.GetCredential(ctx, s.namespace, models.AccessTokenSlot)
}

// GetRefreshToken returns gwerrors.ErrTokenNotFound when no refresh token is stored.
func (s *Store) GetRefreshToken(ctx context.Context) (string, error) {
	return s.repo.GetCredential(ctx, s.namespace, models.RefreshTokenSlot)
}

// SetAccessToken persists the token, the empty string clears it.
func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.repo.SetCredential(ctx, s.namespace, models.AccessTokenSlot, token)
}

// SetRefreshToken persists the token, the empty string clears it.
func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	return s.repo.SetCredential(ctx, s.namespace, models.RefreshTokenSlot, token)
}

// Clear removes both tokens, clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.RemoveCredentials(ctx, s.namespace)
}

func (s *Store) Namespace() string {
	return s.namespace
}

type StoreOption func(*Store) error

func WithNamespace(namespace string) StoreOption {
	return func(s *Store) error {
		s.namespace = namespace
		return nil
	}
}

func WithRepository(repo models.CredentialRepository) StoreOption {
	return func(s *Store) error {
		s.repo = repo
		return nil
	}
}

func NewStore(options ...StoreOption) (*Store, error) {
	s := Store{}
	for _, opt := range options {
		err := opt(&s)
		if err != nil {
			return &Store{}, err
		}
	}
	if s.namespace == "" {
		return &Store{}, fmt.Errorf("credential namespace not initialized")
	}
	if s.repo == nil {
		return &Store{}, fmt.Errorf("credential repository not initialized")
	}
	return &s, nil
}
