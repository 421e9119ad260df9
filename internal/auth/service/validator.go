package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
)

// IdentityLookup resolves a token subject to the identity it names.
// It returns ErrUserNotFound for subjects that no longer exist.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, id string) (domain.Identity, error)
}

// TokenValidator turns a raw token into the identity it authenticates.
type TokenValidator struct {
	Codec      TokenCodec
	Identities IdentityLookup
}

// Validate checks raw and resolves its subject. See ValidateWithClaims.
func (v *TokenValidator) Validate(ctx context.Context, raw string, expected domain.TokenType, now time.Time) (domain.Identity, error) {
	identity, _, err := v.ValidateWithClaims(ctx, raw, expected, now)
	return identity, err
}

// ValidateWithClaims runs, in order: decode, type check, expiry check and
// subject lookup. The first failure wins. Token failures come back as
// ErrInvalidToken, ErrWrongTokenType, ErrTokenExpired or ErrUnknownSubject;
// anything else is an infrastructure error from the lookup.
func (v *TokenValidator) ValidateWithClaims(
	ctx context.Context,
	raw string,
	expected domain.TokenType,
	now time.Time,
) (domain.Identity, domain.TokenClaims, error) {
	identity, claims, err := v.validate(ctx, raw, expected, now)
	tokenValidationsTotal.WithLabelValues(string(expected), Reason(err)).Inc()
	return identity, claims, err
}

func (v *TokenValidator) validate(
	ctx context.Context,
	raw string,
	expected domain.TokenType,
	now time.Time,
) (domain.Identity, domain.TokenClaims, error) {
	decoded, err := v.Codec.Decode(raw)
	if err != nil {
		return domain.Identity{}, domain.TokenClaims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims := toDomainClaims(decoded)

	if claims.TokenType != expected {
		return domain.Identity{}, claims, fmt.Errorf("%w: got %s, want %s", ErrWrongTokenType, claims.TokenType, expected)
	}

	if !now.Before(claims.ExpiresAt) {
		return domain.Identity{}, claims, fmt.Errorf("%w: expired at %s", ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
	}

	identity, err := v.Identities.LookupIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return domain.Identity{}, claims, fmt.Errorf("%w: %s", ErrUnknownSubject, claims.Subject)
		}
		return domain.Identity{}, claims, fmt.Errorf("lookup subject: %w", err)
	}

	return identity, claims, nil
}
