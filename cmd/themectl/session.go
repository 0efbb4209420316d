package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"themeforge/internal/cache"
	"themeforge/internal/config"
	"themeforge/internal/session"
)

func newSessionCmd() *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Mint an admin API session in Valkey",
		Long: `Create a session for the admin API and print its ID.

Valkey is located with the same VALKEY_* environment variables the server
reads. The ID can be sent as the tf_session cookie or as a bearer token:

  curl -H "Authorization: Bearer $(themectl session --email me@example.com)" \
    http://localhost:8080/api/admin/theme`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != session.RoleAdmin && role != session.RoleEditor {
				return fmt.Errorf("role must be %q or %q", session.RoleAdmin, session.RoleEditor)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			id, err := session.NewStore(client, cfg.SecureCookies).Issue(ctx, &session.Data{Email: email, Role: role})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email recorded as metadata.updatedBy for changes made with this session")
	cmd.Flags().StringVar(&role, "role", session.RoleEditor, "Session role: admin or editor")
	cmd.MarkFlagRequired("email")
	return cmd
}
