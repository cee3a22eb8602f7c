package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/observability"
	"github.com/campusvoice/ticket-service/internal/repository"
)

const defaultSweepBatchSize = 500

// Escalator is the escalation entry point used by the sweeper.
type Escalator interface {
	Escalate(ctx context.Context, in EscalateInput) (*EscalationResult, error)
}

// SLASweeper escalates open tickets whose SLA deadline has passed.
type SLASweeper struct {
	tickets   repository.TicketRepository
	escalator Escalator
	metrics   *observability.Metrics
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

// SLASweeperDependencies bundles collaborators for the sweeper.
type SLASweeperDependencies struct {
	TicketRepo repository.TicketRepository
	Escalator  Escalator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	BatchSize  int
	Clock      func() time.Time
}

// NewSLASweeper creates the sweeper.
func NewSLASweeper(deps SLASweeperDependencies) *SLASweeper {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLASweeper{
		tickets:   deps.TicketRepo,
		escalator: deps.Escalator,
		metrics:   deps.Metrics,
		logger:    logger.With(zap.String("component", "sla_sweeper")),
		batchSize: batch,
		now:       clock,
	}
}

// Sweep escalates every breached ticket once and returns how many succeeded.
// Only tickets at an auto-escalatable level are read, so tickets at
// CAMPUS_ADMIN or SYSTEM_ADMIN, or without a level, never take a batch slot.
// A failure on one ticket is logged and the sweep moves on; only the initial query can fail the sweep.
// Tickets beyond the batch size are picked up by the next run.
func (s *SLASweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	now := s.now().UTC()

	breached, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:     domain.SweepableStatuses,
		Levels:       domain.AutoEscalatableLevels,
		SLADueBefore: &now,
		OrderBy:      "sla_due_at",
		Limit:        s.batchSize,
	})
	if err != nil {
		return 0, err
	}

	escalated, failed := 0, 0
	for i := range breached {
		if ctx.Err() != nil {
			break
		}
		ticket := &breached[i]
		if ticket.CurrentLevel == nil {
			s.logger.Debug("skipping breached ticket without level", zap.String("ticket_id", ticket.ID))
			continue
		}

		result, err := s.escalator.Escalate(ctx, EscalateInput{
			TicketID:      ticket.ID,
			CurrentLevel:  *ticket.CurrentLevel,
			Reason:        domain.AutoEscalationReason,
			AutoEscalated: true,
		})
		if err != nil {
			failed++
			s.logger.Warn("auto-escalation failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("level", string(*ticket.CurrentLevel)),
				zap.Error(err),
			)
			continue
		}
		escalated++
		s.logger.Debug("auto-escalated ticket",
			zap.String("ticket_id", ticket.ID),
			zap.String("to_level", string(result.Level)),
		)
	}

	s.metrics.RecordSweep(escalated, failed, time.Since(start))
	s.logger.Info("sla sweep finished",
		zap.Int("candidates", len(breached)),
		zap.Int("escalated", escalated),
		zap.Int("failed", failed),
	)
	return escalated, nil
}
