package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/internal/auth/app"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
)

func newUsersCommand() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Provision user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var in service.CreateUserInput
	var generate bool

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user that can log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if generate {
				password, err := cryptox.GeneratePassword()
				if err != nil {
					return err
				}
				in.Password = password
			}

			return withStore(cmd.Context(), func(cfg app.Config, st store.Store) error {
				if err := st.ApplyMigrations(); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}

				pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
				if err != nil {
					return fmt.Errorf("load pepper: %w", err)
				}

				users := service.NewUserService(st, cryptox.NewHasher(pepper))
				user, err := users.CreateUser(cmd.Context(), in)
				if errors.Is(err, service.ErrEmailTaken) {
					return fmt.Errorf("a user with email %q already exists", in.Email)
				}
				if err != nil {
					return err
				}

				cmd.Printf("Created user %s (%s)\n", user.ID, user.Email)
				if generate {
					cmd.Printf("Password: %s\n", in.Password)
				}
				return nil
			})
		},
	}

	flags := createCmd.Flags()
	flags.StringVar(&in.Email, "email", "", "Login email address")
	flags.StringVar(&in.Password, "password", "", "Initial password")
	flags.BoolVar(&generate, "generate-password", false, "Generate a random password and print it")
	flags.StringVar(&in.Username, "username", "", "Optional username")
	flags.StringVar(&in.FirstName, "first-name", "", "First name")
	flags.StringVar(&in.LastName, "last-name", "", "Last name")
	flags.BoolVar(&in.Inactive, "inactive", false, "Create the account disabled")
	_ = createCmd.MarkFlagRequired("email")
	createCmd.MarkFlagsMutuallyExclusive("password", "generate-password")
	createCmd.MarkFlagsOneRequired("password", "generate-password")

	usersCmd.AddCommand(createCmd)
	return usersCmd
}
