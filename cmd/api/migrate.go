package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusvoice/ticket-service/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pg.Close()
		if pg.Pool == nil {
			return errors.New("postgres: POSTGRES_DSN is required")
		}
		if err := persistence.RunMigrations(cmd.Context(), pg.Pool, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	},
}
