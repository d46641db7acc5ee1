package service

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/pkg/security"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

// NewTokenCommand 签发本地调试用的 jwt，线上由认证服务签发
func NewTokenCommand() *cobra.Command {
	var (
		opts   = &Options{}
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg := core.MustLoadBaseConfig(opts.ConfigPath).Security
			if cfg.JWTSecret == "" {
				return fmt.Errorf("security.jwt_secret is not configured")
			}

			claims := security.NewTokenClaims(types.DEFAULT_APPID, userID, "authenticated", time.Now().Add(ttl).Unix())
			claims.Fields["iss"] = cfg.JWTIssuer
			claims.Fields["aud"] = cfg.JWTAudience

			token, err := security.GenerateJWT(claims, []byte(cfg.JWTSecret))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id written to the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
