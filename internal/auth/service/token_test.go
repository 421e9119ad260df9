package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestIssuePair(t *testing.T) {
	issuer := newTestIssuer(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 750_000_000, time.UTC)

	pair, err := issuer.IssuePair(alice, now)
	require.NoError(t, err)

	issuedAt := now.Truncate(time.Second)

	t.Run("access", func(t *testing.T) {
		c := pair.Access.Claims
		require.Equal(t, domain.TokenTypeAccess, c.TokenType)
		require.Equal(t, alice.ID, c.Subject)
		require.Equal(t, issuedAt, c.IssuedAt)
		require.Equal(t, issuedAt.Add(15*time.Minute), c.ExpiresAt)
		require.NotEmpty(t, pair.Access.Value)
	})

	t.Run("refresh", func(t *testing.T) {
		c := pair.Refresh.Claims
		require.Equal(t, domain.TokenTypeRefresh, c.TokenType)
		require.Equal(t, alice.ID, c.Subject)
		require.Equal(t, issuedAt, c.IssuedAt)
		require.Equal(t, issuedAt.Add(7*24*time.Hour), c.ExpiresAt)
	})

	t.Run("tokens are distinct", func(t *testing.T) {
		require.NotEqual(t, pair.Access.Value, pair.Refresh.Value)
		require.NotEqual(t, pair.Access.Claims.ID, pair.Refresh.Claims.ID)
	})

	t.Run("same second still gives new tokens", func(t *testing.T) {
		again, err := issuer.IssuePair(alice, now)
		require.NoError(t, err)
		require.NotEqual(t, pair.Access.Value, again.Access.Value)
	})
}
