package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/internal/auth/app"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the user store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(_ app.Config, st store.Store) error {
				if err := st.ApplyMigrations(); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}

				version, _, err := st.MigrationVersion()
				if err != nil {
					return err
				}
				cmd.Printf("Schema at version %d.\n", version)
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(_ app.Config, st store.Store) error {
				version, dirty, err := st.MigrationVersion()
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("%d (dirty)\n", version)
					return nil
				}
				cmd.Printf("%d\n", version)
				return nil
			})
		},
	})

	return migrateCmd
}

// withStore loads config, opens the configured store for fn and closes it.
func withStore(ctx context.Context, fn func(app.Config, store.Store) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(cfg, st)
}
