package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	echoapi "github.com/Evenson-7/OJTManagement-sub000/apps/api/echo"
)

var errInactiveUser = errors.New("this account is deactivated")

func (cli *commandLine) tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token EMAIL",
		Short: "Issue an API access token",
		Long: `Signs an API access token for the account of EMAIL with the configured secret key.
Useful for scripts and for testing without the identity service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := cli.token(cmd.Context(), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default server.jwtExpirationDelta)")
	return cmd
}

func (cli *commandLine) token(ctx context.Context, email string, ttl time.Duration) (string, error) {
	usr, err := cli.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !usr.IsActive {
		return "", errInactiveUser
	}

	claims := echoapi.GetUserClaims(usr, cli.conf)
	if ttl > 0 {
		claims.ExpiresAt = claims.IssuedAt + int64(ttl/time.Second)
	}
	return echoapi.GenerateToken(claims, cli.conf.SecretKey)
}
