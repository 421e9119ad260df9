package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

// CredentialVerifier checks an email and password pair.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (domain.Identity, error)
}

// SessionService ties credential checks and token validation to the issuer.
// It is stateless: nothing about a session is stored server side.
type SessionService struct {
	Credentials CredentialVerifier
	Issuer      *TokenIssuer
	Validator   *TokenValidator
}

// Login verifies credentials and issues a fresh token pair.
func (s *SessionService) Login(ctx context.Context, email, password string, now time.Time) (domain.Identity, domain.TokenPair, error) {
	identity, err := s.Credentials.VerifyCredentials(ctx, email, password)
	if err != nil {
		loginsTotal.WithLabelValues(Reason(err)).Inc()
		return domain.Identity{}, domain.TokenPair{}, err
	}

	pair, err := s.Issuer.IssuePair(identity, now)
	if err != nil {
		loginsTotal.WithLabelValues("error").Inc()
		return domain.Identity{}, domain.TokenPair{}, err
	}

	loginsTotal.WithLabelValues("success").Inc()
	slogx.FromContext(ctx).Info("login succeeded", slog.String("user_id", identity.ID))
	return identity, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair.
//
// The new pair is issued at max(now, previous issued-at + 1s), capped at
// now + 1s. A refresh within the same second as the presented pair still
// moves expiry forward, and a burst of refreshes can never push iat more
// than a second past the clock. The presented refresh token is not revoked
// and stays usable until it expires.
func (s *SessionService) Refresh(ctx context.Context, rawRefresh string, now time.Time) (domain.Identity, domain.TokenPair, error) {
	if rawRefresh == "" {
		refreshesTotal.WithLabelValues("missing").Inc()
		return domain.Identity{}, domain.TokenPair{}, ErrMissingRefreshToken
	}

	identity, prev, err := s.Validator.ValidateWithClaims(ctx, rawRefresh, domain.TokenTypeRefresh, now)
	if err != nil {
		if IsTokenError(err) {
			refreshesTotal.WithLabelValues(Reason(err)).Inc()
			return domain.Identity{}, domain.TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
		}
		refreshesTotal.WithLabelValues("error").Inc()
		return domain.Identity{}, domain.TokenPair{}, err
	}

	issuedAt := now.UTC().Truncate(time.Second)
	floor := prev.IssuedAt.Add(time.Second)
	if ceiling := issuedAt.Add(time.Second); floor.After(ceiling) {
		floor = ceiling
	}
	if issuedAt.Before(floor) {
		issuedAt = floor
	}

	pair, err := s.Issuer.IssuePair(identity, issuedAt)
	if err != nil {
		refreshesTotal.WithLabelValues("error").Inc()
		return domain.Identity{}, domain.TokenPair{}, err
	}

	refreshesTotal.WithLabelValues("success").Inc()
	slogx.FromContext(ctx).Debug("session refreshed",
		slog.String("user_id", identity.ID),
		slog.String("prev_jti", prev.ID),
	)
	return identity, pair, nil
}

// IsRefreshFailure reports whether err should be answered with 401 rather
// than 500.
func IsRefreshFailure(err error) bool {
	return errors.Is(err, ErrMissingRefreshToken) || errors.Is(err, ErrInvalidRefreshToken)
}
