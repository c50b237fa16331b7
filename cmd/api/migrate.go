package main

import (
	"authd/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		if err := database.RunMigrations(cfg.Database); err != nil {
			logger.Error("migration failed", "error", err)
			return err
		}

		logger.Info("migrations applied")
		return nil
	},
}
