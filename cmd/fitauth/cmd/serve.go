package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-fitauth"
	"github.com/goliatone/go-fitauth/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM is received.

The database schema is created on start unless database.migrate_on_start
is false. Starting without a signing secret is allowed: protected routes
then answer with a server configuration error.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := auth.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	tokens := newTokenService()
	if !tokens.Configured() {
		logger.Warn("no signing secret configured, authenticated routes will fail until JWT_SECRET is set")
	}

	repo := auth.NewRepositoryManager(db)
	authenticator := auth.NewAuthenticator(tokens, repo.Users(),
		auth.WithLookupTimeout(cfg.Auth.LookupTimeout),
		auth.WithLogger(logger.With("component", "authenticator")),
	)

	srv := server.New(server.Config{
		Production:    cfg.IsProduction(),
		Logger:        logger,
		Tokens:        tokens,
		Authenticator: authenticator,
		Repo:          repo,
		Pinger:        db,
		TokenLookup:   cfg.Auth.TokenLookup,
		AuthScheme:    cfg.Auth.AuthScheme,
		HashUserIDs:   cfg.Auth.HashUserIDs,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr(), "environment", cfg.Environment)
		errCh <- srv.Serve(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
