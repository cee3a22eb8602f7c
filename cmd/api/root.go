package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:           "ticket-service",
	Short:         "Campus complaint tickets with hierarchical routing, SLA escalation and AI enrichment",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, sweepCmd, migrateCmd, tokenCmd)
}

// loadRuntime reads configuration and builds the process logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	logger = logger.With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Env))
	return cfg, logger, nil
}
