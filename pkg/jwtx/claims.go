package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTL constants for the cookie session flow.
// These can be overridden per deployment through configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType separates the two credentials we mint. A token only ever
// authenticates as the type it was issued with.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

func (t TokenType) String() string { return string(t) }

// Claims are the signed fields carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims

	// TokenType is fixed at issuance, "access" or "refresh".
	TokenType TokenType `json:"token_type"`
}

// NewClaims builds claims for a single token. The issued-at time is kept at
// second precision so the in-memory claims match what gets serialized.
func NewClaims(
	subject, issuer string,
	tokenType TokenType,
	issuedAt time.Time,
	ttl time.Duration,
) Claims {
	issuedAt = issuedAt.UTC().Truncate(time.Second)

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenType: tokenType,
	}
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.UTC()
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.UTC()
}

// checkStructure enforces the fields every token we accept must carry.
// Expiry against the wall clock is deliberately not checked here.
func (c *Claims) checkStructure() error {
	switch {
	case c.Subject == "":
		return fmt.Errorf("%w: missing sub", ErrMalformed)
	case !c.TokenType.Valid():
		return fmt.Errorf("%w: unknown token_type %q", ErrMalformed, c.TokenType)
	case c.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat", ErrMalformed)
	case c.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp", ErrMalformed)
	case !c.ExpiresAt.After(c.IssuedAt.Time):
		return fmt.Errorf("%w: exp not after iat", ErrMalformed)
	}
	return nil
}
