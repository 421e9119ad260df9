package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
)

// TokenCodec turns claims into signed strings and back. *jwtx.Codec is the
// only implementation outside tests.
type TokenCodec interface {
	Encode(claims jwtx.Claims) (string, error)
	Decode(raw string) (*jwtx.Claims, error)
}

// TokenIssuer mints access/refresh pairs. It holds only immutable
// configuration and is safe for concurrent use.
type TokenIssuer struct {
	Codec      TokenCodec
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuePair signs a fresh access and refresh token for identity. Both share
// the same issued-at, now truncated to the second.
func (s *TokenIssuer) IssuePair(identity domain.Identity, now time.Time) (domain.TokenPair, error) {
	access, err := s.issue(identity.ID, domain.TokenTypeAccess, now, s.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.issue(identity.ID, domain.TokenTypeRefresh, now, s.RefreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenIssuer) issue(subject string, typ domain.TokenType, now time.Time, ttl time.Duration) (domain.SignedToken, error) {
	claims := jwtx.NewClaims(subject, s.Issuer, jwtx.TokenType(typ), now, ttl)

	raw, err := s.Codec.Encode(claims)
	if err != nil {
		return domain.SignedToken{}, fmt.Errorf("encode %s token: %w", typ, err)
	}

	return domain.SignedToken{Value: raw, Claims: toDomainClaims(&claims)}, nil
}

func toDomainClaims(c *jwtx.Claims) domain.TokenClaims {
	return domain.TokenClaims{
		ID:        c.ID,
		Subject:   c.Subject,
		TokenType: domain.TokenType(c.TokenType),
		IssuedAt:  c.IssuedAtTime(),
		ExpiresAt: c.ExpiresAtTime(),
	}
}
