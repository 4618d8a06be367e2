// Package cmd implements the CLI commands for fitauth.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-fitauth"
	"github.com/goliatone/go-fitauth/config"
	"github.com/goliatone/go-fitauth/logging"
	"github.com/goliatone/go-fitauth/persistence"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	configPath string
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "fitauth",
	Short: "Fitness app authentication service",
	Long: `fitauth runs the authentication API of the fitness app: account
registration and login, bearer token verification for protected routes and
the user profile endpoints.

Configuration is read from a YAML file (--config, FITAUTH_CONFIG or
./config.yaml) and overridden by environment variables such as JWT_SECRET,
PORT and DATABASE_URL.

Examples:
  fitauth serve
  fitauth migrate --config ./config.yaml
  fitauth token --user-id 42 --email ada@example.com`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func openDatabase(ctx context.Context) (*bun.DB, error) {
	db, err := persistence.Open(ctx, persistence.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		PingTimeout:     cfg.Database.PingTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func newTokenService() *auth.TokenService {
	return auth.NewTokenService(auth.TokenOptions{
		Secret:      cfg.Auth.Secret,
		SigningKeys: cfg.Auth.SigningKeys,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		TTL:         cfg.Auth.TokenTTL,
		Logger:      logger.With("component", "tokens"),
	})
}
