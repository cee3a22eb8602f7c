package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/campusvoice/ticket-service/internal/auth"
	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/domain"
)

var tokenRole string

// Accounts are provisioned by the campus identity system; this command
// mints a token for an existing user id, mostly for operators and local
// testing.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue an access token for an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		token, expiresAt, err := tokens.GenerateToken(args[0], domain.UserRole(tokenRole))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "role claim embedded in the token")
}
