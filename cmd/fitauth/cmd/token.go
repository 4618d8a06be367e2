package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-fitauth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development token",
	Long: `Mint a bearer token for a user with the configured signing secret.

The user is not looked up, the token is rejected by the API unless the
user exists in the store.

Examples:
  fitauth token --user-id 42 --email ada@example.com
  fitauth token --user-id 42 --ttl 10m`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var (
	tokenUserID string
	tokenEmail  string
	tokenTTL    time.Duration
)

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "Subject of the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime, defaults to auth.token_ttl")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	tokens := newTokenService()

	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := tokens.GenerateWithTTL(auth.Identity{
		ID:    tokenUserID,
		Email: tokenEmail,
	}, ttl)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
