package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/cookieauth/internal/auth/store"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store/drivers/sqlite"
)

// OpenStore connects to the configured user store. Migrations are left to
// the caller.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		s, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return s, nil

	case "sqlite", "":
		return sqlite.NewStore(sqliteDSN(cfg.DatabaseFile))

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

func sqliteDSN(file string) string {
	if file == ":memory:" || strings.HasPrefix(file, "file:") {
		return file
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", file)
}
