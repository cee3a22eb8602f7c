package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run job workers and the SLA scheduler without the HTTP API",
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

		g, gctx := errgroup.WithContext(cmd.Context())
		startBackground(gctx, g, c)
		return g.Wait()
	},
}
