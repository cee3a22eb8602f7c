package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single SLA sweep and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		c, err := newContainer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		escalated, err := c.scheduler.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		logger.Info("sweep finished", zap.Int("escalated", escalated))
		return nil
	},
}
