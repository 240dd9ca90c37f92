package models

import "context"

type AccessTokenGetter interface {
	GetAccessToken(ctx context.Context) (string, error)
}

type AccessTokenSetter interface {
	SetAccessToken(ctx context.Context, token string) error
}

type RefreshTokenGetter interface {
	GetRefreshToken(ctx context.Context) (string, error)
}

type RefreshTokenSetter interface {
	SetRefreshToken(ctx context.Context, token string) error
}

type CredentialsRemover interface {
	Clear(ctx context.Context) error
}

// CredentialStore is the single owner of a session's access and refresh tokens.
// An empty token passed to a setter removes the slot.
type CredentialStore interface {
	AccessTokenGetter
	AccessTokenSetter
	RefreshTokenGetter
	RefreshTokenSetter
	CredentialsRemover
}

// CredentialRepository persists credential pairs under a namespace.
type CredentialRepository interface {
	GetCredential(ctx context.Context, namespace string, slot CredentialSlot) (string, error)
	GetCredentials(ctx context.Context, namespace string) (CredentialPair, error)
	SetCredential(ctx context.Context, namespace string, slot CredentialSlot, value string) error
	RemoveCredential(ctx context.Context, namespace string, slot CredentialSlot) error
	RemoveCredentials(ctx context.Context, namespace string) error
}

type IDGenerator interface {
	ID() (string, error)
}
