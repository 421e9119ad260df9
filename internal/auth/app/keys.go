package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
)

// InitSigningKeys builds the HMAC key set from configuration.
//
// The active key signs new tokens; AUTH_PREVIOUS_SIGNING_SECRETS adds keys
// that only verify, so a secret can be rotated without logging everyone
// out. In dev an unset secret is replaced with a random one that lives as
// long as the process.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.KeySet, error) {
	secret := []byte(cfg.SigningSecret)
	if len(secret) == 0 {
		if !cfg.IsDev() {
			return nil, fmt.Errorf("AUTH_SIGNING_SECRET is required in %s", cfg.Env)
		}

		generated, err := cryptox.GenerateSecret(cryptox.SecretSize)
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral signing secret: %w", err)
		}
		secret = generated
		logger.Warn("AUTH_SIGNING_SECRET not set, using an ephemeral secret; sessions end when the process restarts")
	}

	previous, err := jwtx.ParseKeys(cfg.PreviousSigningSecrets)
	if err != nil {
		return nil, err
	}

	keys, err := jwtx.NewKeySet(jwtx.Key{ID: cfg.SigningKeyID, Secret: secret}, previous...)
	if err != nil {
		return nil, fmt.Errorf("build signing keys: %w", err)
	}

	logger.Info("signing keys loaded",
		"active_kid", keys.ActiveKID(),
		"verify_only", keys.Len()-1,
	)
	return keys, nil
}
