package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/aigateway"
	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/events"
	"github.com/campusvoice/ticket-service/internal/observability"
	"github.com/campusvoice/ticket-service/internal/persistence"
	"github.com/campusvoice/ticket-service/internal/repository"
	"github.com/campusvoice/ticket-service/internal/service"
	"github.com/campusvoice/ticket-service/internal/worker"
)

// container holds every long-lived component of a process. The HTTP
// server, the worker pool and the sweep scheduler all share it.
type container struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics

	postgres *persistence.Postgres
	redis    *persistence.Redis
	queue    *worker.Queue

	users     repository.UserRepository
	gateway   *aigateway.Client
	tickets   *service.TicketService
	sweeper   *service.SLASweeper
	scheduler *worker.SweepScheduler
	pool      *worker.Pool
}

func newContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if pg.Pool == nil {
		return nil, errors.New("postgres: POSTGRES_DSN is required")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	c := &container{
		cfg:      cfg,
		logger:   logger,
		metrics:  observability.NewMetrics(),
		postgres: pg,
		redis:    persistence.NewRedis(cfg.Redis, logger),
		queue:    worker.NewQueue(cfg.Redis, cfg.Queue, logger),
	}

	pool := pg.Pool
	c.users = repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	predictionRepo := repository.NewPredictionRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, c.queue, logger, cfg.Notification).RegisterHandlers()

	resolver := service.NewRoutingResolver(c.users, repository.NewOrganizationRepository(pool), logger)
	escalations := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:     ticketRepo,
		EscalationRepo: repository.NewEscalationRepository(pool),
		Resolver:       resolver,
		Dispatcher:     dispatcher,
		Metrics:        c.metrics,
		Logger:         logger,
	})
	c.tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageRepo:    repository.NewTicketMessageRepository(pool),
		AttachmentRepo: attachmentRepo,
		PredictionRepo: predictionRepo,
		Resolver:       resolver,
		Escalator:      escalations,
		Queue:          c.queue,
		Dispatcher:     dispatcher,
		Audit:          service.NewAuditService(repository.NewAuditRepository(pool), logger),
		Logger:         logger,
		NumberPrefix:   cfg.App.TicketNumberPrefix,
	})
	c.sweeper = service.NewSLASweeper(service.SLASweeperDependencies{
		TicketRepo: ticketRepo,
		Escalator:  escalations,
		Metrics:    c.metrics,
		Logger:     logger,
		BatchSize:  cfg.SLA.BatchSize,
	})
	c.scheduler = worker.NewSweepScheduler(c.sweeper, c.redis, cfg.SLA, logger)

	c.gateway = aigateway.NewClient(aigateway.Config{
		BaseURL:       cfg.AI.BaseURL,
		APIKey:        cfg.AI.APIKey,
		AuthScheme:    cfg.AI.AuthScheme,
		Model:         cfg.AI.Model,
		Timeout:       cfg.AI.Timeout(),
		RatePerSecond: cfg.AI.RatePerSecond,
		Burst:         cfg.AI.Burst,
	}, logger)
	enrichment := service.NewEnrichmentService(service.EnrichmentDependencies{
		TicketRepo:       ticketRepo,
		PredictionRepo:   predictionRepo,
		EmbeddingRepo:    repository.NewEmbeddingRepository(pool),
		AttachmentRepo:   attachmentRepo,
		NotificationRepo: repository.NewNotificationRepository(pool),
		UserRepo:         c.users,
		Gateway:          c.gateway,
		Transport:        service.NewNotificationTransport(cfg.Notification, logger),
		Logger:           logger,
	})
	c.pool = worker.NewPool(cfg.Redis, cfg.Queue, worker.NewTaskHandler(enrichment, logger), c.metrics, logger)

	return c, nil
}

func (c *container) Close() {
	if err := c.queue.Close(); err != nil {
		c.logger.Warn("close queue client", zap.Error(err))
	}
	c.redis.Close()
	c.postgres.Close()
}
