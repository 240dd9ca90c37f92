package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
)

// CredentialSlot is the stable name under which a token is persisted.
type CredentialSlot string

const (
	AccessTokenSlot  CredentialSlot = "token"
	RefreshTokenSlot CredentialSlot = "refresh_token"
)

// CredentialPair holds the two tokens of a session; empty means absent.
type CredentialPair struct {
	AccessToken  string `mapstructure:"token"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// Token returns the pair as an oauth2 bearer token.
func (c CredentialPair) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
}

// String implements the Stringer interface for printing the pair in logs
func (c CredentialPair) String() string {
	return "CredentialPair<AccessToken: " + presence(c.AccessToken) + ", RefreshToken: " + presence(c.RefreshToken) + ">"
}

func presence(token string) string {
	if token == "" {
		return "absent"
	}
	return "redacted"
}

// AccessTokenExpiry reads the exp claim of a JWT access token without verifying it.
// Opaque tokens and tokens without exp report false.
func AccessTokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiresWithin reports whether a JWT access token expires in less than margin.
func ExpiresWithin(token string, margin time.Duration) bool {
	if margin <= 0 {
		return false
	}
	expiresAt, ok := AccessTokenExpiry(token)
	if !ok {
		return false
	}
	return time.Now().UTC().Add(margin).After(expiresAt)
}
