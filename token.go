package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/parisxmas/formcraft/internal/auth"
	"github.com/parisxmas/formcraft/internal/models"
)

var (
	tokenUID      string
	tokenEmail    string
	tokenName     string
	tokenVerified bool
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for development",
	Long: `Prints a signed session token for the given identity. Production tokens
come from the authentication provider; this command shares its secret.

Example:
  formcraft token --uid u1 --email ada@example.com --name "Ada Lovelace"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUID == "" {
			return errors.New("--uid is required")
		}
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.TokenTTL()
		}
		tok, err := auth.GenerateToken(cfg.Auth.JWTSecret, models.User{
			UID:           tokenUID,
			Email:         tokenEmail,
			DisplayName:   tokenName,
			EmailVerified: tokenVerified,
		}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "", "user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email address")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	tokenCmd.Flags().BoolVar(&tokenVerified, "verified", false, "mark the email as verified")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
}
