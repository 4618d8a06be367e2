package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-fitauth"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the user store tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := auth.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		logger.Info("schema up to date", "driver", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
