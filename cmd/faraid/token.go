package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"faraid/internal/platform/config"
	jwttoken "faraid/internal/platform/jwt"
)

// newTokenCmd issues a bearer token signed with the server's AUTH_* settings,
// for calling the history endpoints during development.
func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the history endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer).IssueToken(subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "owner of saved calculations")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default AUTH_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
