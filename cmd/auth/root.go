package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/internal/auth/app"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cookieauth",
		Short:        "Cookie session authentication service",
		Long:         "Serves login, logout, refresh and me endpoints backed by HMAC-signed cookies.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		// No subcommand means serve, which is what the container runs.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newUsersCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Printf("%s\n", app.BuildVersion)
			},
		},
	)

	return rootCmd
}
