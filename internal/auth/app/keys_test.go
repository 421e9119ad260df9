package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

func TestInitSigningKeys(t *testing.T) {
	t.Run("configured secret and previous keys", func(t *testing.T) {
		cfg := validConfig()
		cfg.SigningKeyID = "2025"
		cfg.PreviousSigningSecrets = "2024=fedcba9876543210fedcba9876543210"

		keys, err := InitSigningKeys(cfg, slogx.Discard())
		require.NoError(t, err)
		require.Equal(t, "2025", keys.ActiveKID())
		require.Equal(t, 2, keys.Len())

		secret, err := keys.Get("2025")
		require.NoError(t, err)
		require.Equal(t, []byte(testSecret), secret)
	})

	t.Run("ephemeral secret in dev", func(t *testing.T) {
		cfg := validConfig()
		cfg.Env = "dev"
		cfg.SigningSecret = ""

		a, err := InitSigningKeys(cfg, slogx.Discard())
		require.NoError(t, err)
		b, err := InitSigningKeys(cfg, slogx.Discard())
		require.NoError(t, err)

		sa, _ := a.Get(cfg.SigningKeyID)
		sb, _ := b.Get(cfg.SigningKeyID)
		require.GreaterOrEqual(t, len(sa), jwtx.MinSecretLength)
		require.NotEqual(t, sa, sb)
	})

	t.Run("missing secret outside dev", func(t *testing.T) {
		cfg := validConfig()
		cfg.SigningSecret = ""

		_, err := InitSigningKeys(cfg, slogx.Discard())
		require.Error(t, err)
	})

	t.Run("previous key reuses the active id", func(t *testing.T) {
		cfg := validConfig()
		cfg.PreviousSigningSecrets = "primary=fedcba9876543210fedcba9876543210"

		_, err := InitSigningKeys(cfg, slogx.Discard())
		require.ErrorIs(t, err, jwtx.ErrDuplicateID)
	})
}

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, ":memory:", sqliteDSN(":memory:"))
	require.Equal(t, "file:x.db?mode=ro", sqliteDSN("file:x.db?mode=ro"))
	require.Equal(t, "file:auth.db?_pragma=journal_mode(WAL)", sqliteDSN("auth.db"))
}
