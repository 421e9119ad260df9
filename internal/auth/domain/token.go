package domain

import "time"

// TokenType names which credential a token is. A token only authenticates as
// the type it was issued with.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims are the fields we sign into every token.
type TokenClaims struct {
	ID        string // jti, used to refer to a token in logs without printing it
	Subject   string // Identity.ID
	TokenType TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time // always after IssuedAt
}

// Remaining returns how long the token is still valid at now, never negative.
func (c TokenClaims) Remaining(now time.Time) time.Duration {
	return max(c.ExpiresAt.Sub(now), 0)
}

// SignedToken is the serialized token alongside the claims it carries.
type SignedToken struct {
	Value  string
	Claims TokenClaims
}

// TokenPair is what login and refresh hand back. Both tokens share the same
// subject and issued-at time.
type TokenPair struct {
	Access  SignedToken
	Refresh SignedToken
}
