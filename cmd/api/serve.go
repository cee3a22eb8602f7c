package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campusvoice/ticket-service/internal/aigateway"
	httptransport "github.com/campusvoice/ticket-service/internal/api/http"
	"github.com/campusvoice/ticket-service/internal/api/http/handlers"
	"github.com/campusvoice/ticket-service/internal/auth"
)

const shutdownGrace = 15 * time.Second

var (
	withWorkers bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, optionally with background workers and the SLA scheduler",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&withWorkers, "with-workers", true, "also run job workers and the SLA scheduler in this process")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	c, err := newContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, c.metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": c.postgres,
			"redis":    c.redis,
		}),
		Tickets:        handlers.NewTicketsHandler(c.tickets),
		AI:             handlers.NewAIHandler(aigateway.NewFallback(c.gateway, logger)),
		Admin:          handlers.NewAdminHandler(c.scheduler),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes), c.users),
		Metrics:        c.metrics.Handler(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return app.ShutdownWithTimeout(shutdownGrace)
	})
	if withWorkers {
		startBackground(gctx, g, c)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}

// startBackground adds the worker pool and, when enabled, the SLA
// scheduler to g.
func startBackground(ctx context.Context, g *errgroup.Group, c *container) {
	g.Go(func() error { return c.pool.Run(ctx) })
	if c.cfg.SLA.Enabled {
		g.Go(func() error { return c.scheduler.Run(ctx) })
	}
}
