package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/events"
	"github.com/campusvoice/ticket-service/internal/observability"
	"github.com/campusvoice/ticket-service/internal/repository"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

// escalationAttempts bounds the optimistic retry loop: the first try plus one
// retry after losing a race.
const escalationAttempts = 2

// EscalateInput describes one escalation request. FromUserID is nil for
// system-driven escalations.
type EscalateInput struct {
	TicketID      string
	CurrentLevel  domain.HierarchyLevel
	Reason        string
	FromUserID    *string
	AutoEscalated bool
}

// EscalationResult reports the new routing of the ticket.
type EscalationResult struct {
	AssignedUserID    *string
	Level             domain.HierarchyLevel
	EscalationCreated bool
	Escalation        *domain.Escalation
}

// AssigneeResolver finds the owner of a hierarchy level.
type AssigneeResolver interface {
	ResolveAssignee(ctx context.Context, level domain.HierarchyLevel, scope AssigneeScope) (*string, error)
}

// EscalationService moves tickets up the hierarchy. Manual and automatic
// escalations share Escalate.
type EscalationService struct {
	tickets     repository.TicketRepository
	escalations repository.EscalationRepository
	resolver    AssigneeResolver
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// EscalationDependencies bundles collaborators for the escalation service.
type EscalationDependencies struct {
	TicketRepo     repository.TicketRepository
	EscalationRepo repository.EscalationRepository
	Resolver       AssigneeResolver
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          func() time.Time
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationService{
		tickets:     deps.TicketRepo,
		escalations: deps.EscalationRepo,
		resolver:    deps.Resolver,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger.With(zap.String("component", "escalation")),
		now:         clock,
	}
}

// NewTerminalLevelError is returned when escalating from the top of the chain.
func NewTerminalLevelError(level domain.HierarchyLevel) error {
	return apperrors.NewTerminalState("ticket is already at the top of the hierarchy", map[string]any{
		"level": level,
	})
}

// Escalate advances the ticket one level from in.CurrentLevel. The ticket row
// only moves if it is still at in.CurrentLevel; a caller that lost a race gets
// CONFLICT and no escalation record is written on its behalf.
func (s *EscalationService) Escalate(ctx context.Context, in EscalateInput) (*EscalationResult, error) {
	next, ok := domain.NextLevel(in.CurrentLevel)
	if !ok {
		if in.CurrentLevel.Valid() {
			return nil, NewTerminalLevelError(in.CurrentLevel)
		}
		return nil, apperrors.NewValidationError("unknown hierarchy level", map[string]any{"level": in.CurrentLevel})
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("escalation reason is required", nil)
	}

	for attempt := 1; attempt <= escalationAttempts; attempt++ {
		ticket, err := s.tickets.GetByID(ctx, in.TicketID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": in.TicketID})
			}
			return nil, err
		}
		if ticket.Status.Terminal() {
			return nil, apperrors.NewTerminalState("ticket is closed", map[string]any{
				"ticket_id": ticket.ID,
				"status":    ticket.Status,
			})
		}
		if ticket.Level() != in.CurrentLevel {
			return nil, apperrors.NewConflict("ticket is no longer at the expected level", map[string]any{
				"ticket_id":      ticket.ID,
				"expected_level": in.CurrentLevel,
				"current_level":  ticket.Level(),
			})
		}

		assignee, err := s.resolver.ResolveAssignee(ctx, next, AssigneeScope{
			CollegeID:    ticket.CollegeID,
			DepartmentID: ticket.DepartmentID,
		})
		if err != nil {
			return nil, err
		}

		at := s.now().UTC()
		escalation := &domain.Escalation{
			TicketID:      ticket.ID,
			FromLevel:     in.CurrentLevel,
			ToLevel:       next,
			FromUserID:    in.FromUserID,
			ToUserID:      assignee,
			Reason:        reason,
			AutoEscalated: in.AutoEscalated,
		}
		change := &domain.EscalationChange{
			TicketID:        ticket.ID,
			ExpectedVersion: ticket.Version,
			Escalation:      escalation,
			NewAssigneeID:   assignee,
			SystemMessage: &domain.TicketMessage{
				TicketID:   ticket.ID,
				AuthorType: domain.AuthorTypeSystem,
				Body:       escalationMessage(in.CurrentLevel, next, reason, assignee),
			},
			At: at,
		}

		err = s.tickets.ApplyEscalation(ctx, change)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Info("escalation lost optimistic race",
				zap.String("ticket_id", ticket.ID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.afterCommit(ctx, ticket, escalation)
		return &EscalationResult{
			AssignedUserID:    assignee,
			Level:             next,
			EscalationCreated: true,
			Escalation:        escalation,
		}, nil
	}

	return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": in.TicketID})
}

// ListEscalations returns the escalation log of a ticket, oldest first.
func (s *EscalationService) ListEscalations(ctx context.Context, ticketID string) ([]domain.Escalation, error) {
	return s.escalations.ListByTicket(ctx, ticketID)
}

func (s *EscalationService) afterCommit(ctx context.Context, ticket *domain.Ticket, escalation *domain.Escalation) {
	s.metrics.RecordEscalation(string(escalation.ToLevel), escalation.AutoEscalated)

	fields := []zap.Field{
		zap.String("ticket_id", ticket.ID),
		zap.String("from_level", string(escalation.FromLevel)),
		zap.String("to_level", string(escalation.ToLevel)),
		zap.Bool("auto", escalation.AutoEscalated),
	}
	if escalation.ToUserID == nil {
		s.logger.Warn("escalated ticket has no eligible assignee", fields...)
	} else {
		s.logger.Info("ticket escalated", fields...)
	}

	if s.dispatcher == nil {
		return
	}
	actor := events.SystemActor
	if escalation.FromUserID != nil {
		actor = events.UserActor(*escalation.FromUserID)
	}
	_ = s.dispatcher.Publish(ctx, events.New(events.EventTicketEscalated, ticket.ID, actor, events.TicketEscalatedPayload{
		TicketNumber:  ticket.TicketNumber,
		EscalationID:  escalation.ID,
		FromLevel:     escalation.FromLevel,
		ToLevel:       escalation.ToLevel,
		ToUserID:      escalation.ToUserID,
		CreatorID:     ticket.CreatorID,
		Reason:        escalation.Reason,
		AutoEscalated: escalation.AutoEscalated,
	}))
}

func escalationMessage(from, to domain.HierarchyLevel, reason string, assignee *string) string {
	msg := fmt.Sprintf("Ticket escalated from %s to %s. Reason: %s", from, to, reason)
	if assignee == nil {
		msg += " No eligible assignee was found at the new level."
	}
	return msg
}
