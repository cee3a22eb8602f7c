package worker

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/persistence"
)

const sweepLockKey = "locks:sla-sweep"

// Sweeper runs one SLA sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Locker provides a cluster wide mutex. persistence.Redis implements it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// SweepScheduler triggers the SLA sweeper periodically. Only the replica
// holding the lock sweeps on a given tick.
type SweepScheduler struct {
	sweeper  Sweeper
	locker   Locker
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewSweepScheduler creates the scheduler. A nil locker disables locking.
func NewSweepScheduler(sweeper Sweeper, locker Locker, cfg config.SLAConfig, logger *zap.Logger) *SweepScheduler {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = interval
	}
	return &SweepScheduler{
		sweeper:  sweeper,
		locker:   locker,
		interval: interval,
		lockTTL:  ttl,
		logger:   logger.With(zap.String("component", "sweep_scheduler")),
	}
}

// RunOnce sweeps if the lock can be taken. It returns persistence.ErrLockHeld
// when another replica is sweeping.
func (s *SweepScheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTTL)
	defer cancel()

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, sweepLockKey, s.lockTTL)
		if err != nil {
			return 0, err
		}
		defer func() {
			// the sweep context may be done already
			if err := release(context.Background()); err != nil {
				s.logger.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}
	return s.sweeper.Sweep(ctx)
}

// Run schedules sweeps until ctx is cancelled and waits for a running sweep
// to finish.
func (s *SweepScheduler) Run(ctx context.Context) error {
	logger := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	_, err := c.AddFunc("@every "+s.interval.String(), func() { s.tick(ctx) })
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info("sla sweep scheduled", zap.Duration("interval", s.interval))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (s *SweepScheduler) tick(ctx context.Context) {
	n, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, persistence.ErrLockHeld):
		s.logger.Debug("sweep skipped, lock held elsewhere")
	case err != nil:
		s.logger.Error("sla sweep failed", zap.Error(err))
	case n > 0:
		s.logger.Info("sla sweep escalated tickets", zap.Int("escalated", n))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
