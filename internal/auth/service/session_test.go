package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionService, *UserService) {
	t.Helper()
	users := newTestUsers(t)
	issuer := newTestIssuer(t)
	return &SessionService{
		Credentials: users,
		Issuer:      issuer,
		Validator:   &TokenValidator{Codec: issuer.Codec, Identities: users},
	}, users
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	sessions, users := newTestSessions(t)
	u := seedUser(t, users)
	now := time.Now()

	t.Run("valid credentials", func(t *testing.T) {
		identity, pair, err := sessions.Login(ctx, "a@b.com", "secret", now)
		require.NoError(t, err)
		require.Equal(t, u.ID, identity.ID)
		require.Equal(t, u.ID, pair.Access.Claims.Subject)
		require.Equal(t, pair.Access.Claims.IssuedAt, pair.Refresh.Claims.IssuedAt)
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		identity, _, err := sessions.Login(ctx, "  A@B.COM ", "secret", now)
		require.NoError(t, err)
		require.Equal(t, u.ID, identity.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, pair, err := sessions.Login(ctx, "a@b.com", "Secret", now)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Empty(t, pair.Access.Value)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := sessions.Login(ctx, "nobody@b.com", "secret", now)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	sessions, users := newTestSessions(t)
	u := seedUser(t, users)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, pair, err := sessions.Login(ctx, "a@b.com", "secret", now)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, _, err := sessions.Refresh(ctx, "", now)
		require.ErrorIs(t, err, ErrMissingRefreshToken)
		require.True(t, IsRefreshFailure(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := sessions.Refresh(ctx, "abc.def.ghi", now)
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, _, err := sessions.Refresh(ctx, pair.Access.Value, now)
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
		require.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("expired", func(t *testing.T) {
		_, _, err := sessions.Refresh(ctx, pair.Refresh.Value, now.Add(8*24*time.Hour))
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("success a minute later", func(t *testing.T) {
		later := now.Add(time.Minute)
		identity, next, err := sessions.Refresh(ctx, pair.Refresh.Value, later)
		require.NoError(t, err)
		require.Equal(t, u.ID, identity.ID)
		require.Equal(t, later, next.Access.Claims.IssuedAt)
		require.True(t, next.Access.Claims.ExpiresAt.After(pair.Access.Claims.ExpiresAt))
	})

	t.Run("same second still moves expiry forward", func(t *testing.T) {
		_, next, err := sessions.Refresh(ctx, pair.Refresh.Value, now)
		require.NoError(t, err)
		require.True(t, next.Access.Claims.ExpiresAt.After(pair.Access.Claims.ExpiresAt),
			"next exp %s, prev exp %s", next.Access.Claims.ExpiresAt, pair.Access.Claims.ExpiresAt)
	})

	t.Run("rapid refreshes never run ahead of the clock", func(t *testing.T) {
		prev := pair
		for range 50 {
			_, next, err := sessions.Refresh(ctx, prev.Refresh.Value, now)
			require.NoError(t, err)
			require.False(t, next.Access.Claims.ExpiresAt.Before(prev.Access.Claims.ExpiresAt))
			require.False(t, next.Access.Claims.IssuedAt.After(now.Add(time.Second)),
				"iat %s drifted past %s", next.Access.Claims.IssuedAt, now.Add(time.Second))
			prev = next
		}
		require.Equal(t, now.Add(time.Second), prev.Access.Claims.IssuedAt)

		// Once the clock catches up the chain resumes from real time
		_, next, err := sessions.Refresh(ctx, prev.Refresh.Value, now.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, now.Add(time.Minute), next.Access.Claims.IssuedAt)
	})

	t.Run("old refresh token stays valid", func(t *testing.T) {
		// No revocation: rotating does not burn the presented token
		_, _, err := sessions.Refresh(ctx, pair.Refresh.Value, now.Add(time.Hour))
		require.NoError(t, err)
	})
}

func TestRefreshForDeletedUser(t *testing.T) {
	ctx := context.Background()
	issuer := newTestIssuer(t)
	ids := newFakeIdentities()
	sessions := &SessionService{Issuer: issuer, Validator: &TokenValidator{Codec: issuer.Codec, Identities: ids}}

	now := time.Now()
	pair, err := issuer.IssuePair(alice, now)
	require.NoError(t, err)

	delete(ids.byID, alice.ID)

	_, _, err = sessions.Refresh(ctx, pair.Refresh.Value, now)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
	require.ErrorIs(t, err, ErrUnknownSubject)
}

func TestRefreshInfrastructureError(t *testing.T) {
	issuer := newTestIssuer(t)
	ids := &fakeIdentities{err: context.DeadlineExceeded}
	sessions := &SessionService{Issuer: issuer, Validator: &TokenValidator{Codec: issuer.Codec, Identities: ids}}

	now := time.Now()
	pair, err := issuer.IssuePair(domain.Identity{ID: "x"}, now)
	require.NoError(t, err)

	_, _, err = sessions.Refresh(context.Background(), pair.Refresh.Value, now)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, IsRefreshFailure(err))
}
