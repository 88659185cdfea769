package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"legal-battle-service/internal/auth"
	"legal-battle-service/internal/config"
)

// NewTokenCmd issues a bearer token for a user, for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token <userId>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errors.New("auth.secret is not configured")
			}
			tokens := auth.NewTokens(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			raw, err := tokens.Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
}
