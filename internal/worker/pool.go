package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Pool runs one asynq server per queue so that a slow queue never starves
// another one.
type Pool struct {
	servers map[domain.QueueName]*asynq.Server
	mux     *asynq.ServeMux
	logger  *zap.Logger
}

// NewPool builds the servers for every queue with a positive concurrency.
func NewPool(redisCfg config.RedisConfig, queueCfg config.QueueConfig, handler *TaskHandler, metrics *observability.Metrics, logger *zap.Logger) *Pool {
	logger = logger.With(zap.String("component", "worker_pool"))

	mux := asynq.NewServeMux()
	mux.Use(instrument(metrics, logger))
	handler.Register(mux)

	concurrency := map[domain.QueueName]int{
		domain.QueueAI:           queueCfg.AIConcurrency,
		domain.QueueOCR:          queueCfg.OCRConcurrency,
		domain.QueueNotification: queueCfg.NotificationConcurrency,
	}

	p := &Pool{servers: make(map[domain.QueueName]*asynq.Server), mux: mux, logger: logger}
	for name, n := range concurrency {
		if n <= 0 {
			logger.Warn("queue disabled", zap.String("queue", string(name)))
			continue
		}
		p.servers[name] = asynq.NewServer(RedisOpt(redisCfg), asynq.Config{
			Concurrency:     n,
			Queues:          map[string]int{string(name): 1},
			RetryDelayFunc:  RetryDelay(queueCfg.BackoffBase, queueCfg.BackoffMax),
			ErrorHandler:    deadLetterHandler(metrics, logger),
			Logger:          logger.With(zap.String("queue", string(name))).Sugar(),
			ShutdownTimeout: shutdownTimeout,
		})
	}
	return p
}

// Run starts all servers and blocks until ctx is cancelled, then drains
// in-flight tasks.
func (p *Pool) Run(ctx context.Context) error {
	started := make([]domain.QueueName, 0, len(p.servers))
	for name, srv := range p.servers {
		if err := srv.Start(p.mux); err != nil {
			p.shutdown(started)
			return fmt.Errorf("start %s worker: %w", name, err)
		}
		started = append(started, name)
		p.logger.Info("worker started", zap.String("queue", string(name)))
	}

	<-ctx.Done()
	p.shutdown(started)
	return nil
}

func (p *Pool) shutdown(names []domain.QueueName) {
	for _, name := range names {
		p.servers[name].Shutdown()
		p.logger.Info("worker stopped", zap.String("queue", string(name)))
	}
}

// RetryDelay returns an exponential backoff starting at base and capped at limit.
func RetryDelay(base, limit time.Duration) asynq.RetryDelayFunc {
	if base <= 0 {
		base = 10 * time.Second
	}
	if limit < base {
		limit = base
	}
	return func(retried int, _ error, _ *asynq.Task) time.Duration {
		if retried < 0 {
			retried = 0
		}
		delay := base
		for i := 0; i < retried; i++ {
			delay *= 2
			if delay >= limit {
				return limit
			}
		}
		return delay
	}
}

// deadLettered reports whether asynq archives the task after this failure.
func deadLettered(err error, retried, maxRetry int) bool {
	return errors.Is(err, asynq.SkipRetry) || retried >= maxRetry
}

func deadLetterHandler(metrics *observability.Metrics, logger *zap.Logger) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		queue, _ := asynq.GetQueueName(ctx)
		taskID, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		fields := []zap.Field{
			zap.String("queue", queue),
			zap.String("task_type", task.Type()),
			zap.String("task_id", taskID),
			zap.Int("retried", retried),
			zap.Int("max_retry", maxRetry),
			zap.Error(err),
		}
		if deadLettered(err, retried, maxRetry) {
			metrics.RecordDeadLetter(queue, task.Type())
			logger.Error("job dead-lettered", append(fields, zap.Bool("dead_lettered", true))...)
			return
		}
		logger.Warn("job failed, will retry", fields...)
	})
}

func instrument(metrics *observability.Metrics, logger *zap.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, task)
			queue, _ := asynq.GetQueueName(ctx)
			metrics.RecordJob(queue, task.Type(), err, time.Since(start))
			if err == nil {
				logger.Debug("job processed",
					zap.String("queue", queue),
					zap.String("task_type", task.Type()),
					zap.Duration("duration", time.Since(start)),
				)
			}
			return err
		})
	}
}
