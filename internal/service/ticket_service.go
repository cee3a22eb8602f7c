package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/events"
	"github.com/campusvoice/ticket-service/internal/repository"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

const (
	ticketNumberAttempts = 5
	defaultNumberPrefix  = "CMP"
)

// TicketService coordinates ticket workflows. Every change to routing,
// status or priority of a ticket goes through it or the escalation service.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	predictions repository.PredictionRepository
	resolver    *RoutingResolver
	escalator   *EscalationService
	queue       JobQueue
	dispatcher  events.Dispatcher
	audit       *AuditService
	validate    *validator.Validate
	prefix      string
	suffix      func() int
	now         func() time.Time
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	PredictionRepo repository.PredictionRepository
	Resolver       *RoutingResolver
	Escalator      *EscalationService
	Queue          JobQueue
	Dispatcher     events.Dispatcher
	Audit          *AuditService
	Logger         *zap.Logger
	NumberPrefix   string
	// NumberSuffix returns the random part of a ticket number, 0..99999.
	NumberSuffix func() int
	Clock        func() time.Time
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title        string                `validate:"required,min=3,max=200"`
	Description  string                `validate:"required,min=10,max=5000"`
	Category     domain.TicketCategory `validate:"required,oneof=TRANSPORT HOSTEL ACADEMIC ADMINISTRATIVE OTHER"`
	Type         domain.TicketType     `validate:"omitempty,oneof=COMPLAINT SUGGESTION"`
	Priority     domain.TicketPriority `validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	CollegeID    *string               `validate:"omitempty,uuid"`
	DepartmentID *string               `validate:"omitempty,uuid"`
	IsAnonymous  bool
}

// UpdateTicketInput carries the fields a caller wants to change. Version,
// when set, must match the stored version.
type UpdateTicketInput struct {
	Title       *string                `validate:"omitempty,min=3,max=200"`
	Description *string                `validate:"omitempty,min=10,max=5000"`
	Priority    *domain.TicketPriority `validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status      *domain.TicketStatus   `validate:"omitempty,oneof=OPEN IN_PROGRESS PENDING_INFO RESOLVED CLOSED REJECTED"`
	Version     *int
}

// AttachmentInput defines attachment metadata. Files live in external storage.
type AttachmentInput struct {
	FileURL   string `validate:"required,url"`
	FileName  string `validate:"required,max=255"`
	MimeType  string `validate:"required"`
	SizeBytes int64  `validate:"gte=0"`
}

// AddMessageInput describes a new thread message.
type AddMessageInput struct {
	Body        string            `validate:"required,max=5000"`
	IsInternal  bool
	Attachments []AttachmentInput `validate:"max=10,dive"`
}

// RateInput carries a satisfaction rating.
type RateInput struct {
	Rating   int    `validate:"required,min=1,max=5"`
	Feedback string `validate:"max=2000"`
}

// ListTicketsInput filters ticket listings.
type ListTicketsInput struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// TicketDetails is a ticket with its visible thread.
type TicketDetails struct {
	Ticket   *domain.Ticket
	Messages []domain.TicketMessage
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	prefix := strings.TrimSpace(deps.NumberPrefix)
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	suffix := deps.NumberSuffix
	if suffix == nil {
		suffix = func() int { return rand.IntN(100000) }
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		predictions: deps.PredictionRepo,
		resolver:    deps.Resolver,
		escalator:   deps.Escalator,
		queue:       deps.Queue,
		dispatcher:  deps.Dispatcher,
		audit:       deps.Audit,
		validate:    validator.New(),
		prefix:      prefix,
		suffix:      suffix,
		now:         clock,
		logger:      logger.With(zap.String("component", "tickets")),
	}
}

// Create routes, persists and schedules enrichment of a new ticket. Jobs are
// only enqueued after the ticket row is committed; enqueue failures are
// logged and never fail the creation.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, in CreateTicketInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = domain.TicketPriorityMedium
	}
	if in.Type == "" {
		in.Type = domain.TicketTypeComplaint
	}

	decision, err := s.resolver.ResolveInitialRouting(ctx, in.Category, in.CollegeID, in.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	createdAt := s.now().UTC()
	level := decision.Level
	ticket := &domain.Ticket{
		CreatorID:      actor.ID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Type:           in.Type,
		Priority:       in.Priority,
		Status:         domain.TicketStatusOpen,
		CollegeID:      in.CollegeID,
		DepartmentID:   in.DepartmentID,
		CurrentLevel:   &level,
		AssignedUserID: decision.AssignedUserID,
		SLADueAt:       domain.SLADeadline(createdAt, in.Priority),
		IsAnonymous:    in.IsAnonymous,
		CreatedAt:      createdAt,
	}

	if err := s.insertWithUniqueNumber(ctx, ticket); err != nil {
		return nil, err
	}

	if decision.AssignedUserID == nil {
		s.logger.Warn("ticket routed without assignee",
			zap.String("ticket_id", ticket.ID),
			zap.String("level", string(level)),
		)
	}

	text := domain.TextPayload{TicketID: ticket.ID, Title: ticket.Title, Description: ticket.Description}
	for _, jobType := range []domain.JobType{domain.JobSummarize, domain.JobModerate, domain.JobEmbed} {
		s.enqueue(ctx, jobType, ticket.ID, text)
	}

	s.publish(ctx, events.New(events.EventTicketCreated, ticket.ID, events.UserActor(actor.ID), events.TicketCreatedPayload{
		TicketNumber:   ticket.TicketNumber,
		Title:          ticket.Title,
		Category:       ticket.Category,
		Priority:       ticket.Priority,
		Level:          level,
		AssignedUserID: ticket.AssignedUserID,
		CreatorID:      ticket.CreatorID,
	}))
	s.audit.Log(ctx, domain.AuditEntry{
		UserID:     &actor.ID,
		Action:     domain.AuditTicketCreated,
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Metadata: map[string]any{
			"ticket_number": ticket.TicketNumber,
			"category":      ticket.Category,
			"priority":      ticket.Priority,
			"level":         level,
		},
	})
	return ticket, nil
}

// Get returns a ticket and the messages the actor may see.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*TicketDetails, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID, canHandle(actor, ticket))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byMessage := make(map[string][]domain.Attachment, len(attachments))
	for _, a := range attachments {
		if a.MessageID != nil {
			byMessage[*a.MessageID] = append(byMessage[*a.MessageID], a)
		}
	}
	visible := make([]domain.TicketMessage, 0, len(msgs))
	for _, msg := range msgs {
		msg.Attachments = byMessage[msg.ID]
		visible = append(visible, msg)
	}
	return &TicketDetails{Ticket: ticket, Messages: visible}, nil
}

// List returns tickets the actor created, or for handlers the tickets
// assigned to them. Admins see everything.
func (s *TicketService) List(ctx context.Context, actor *domain.User, in ListTicketsInput) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.TicketFilter{
		Statuses:   in.Statuses,
		Limit:      in.Limit,
		Offset:     in.Offset,
		OrderBy:    "created_at",
		Descending: true,
	}
	switch {
	case actor.Role.Admin():
	case actor.Role.Handler():
		filter.AssignedUserID = &actor.ID
	default:
		filter.CreatorID = &actor.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AddMessage appends a message to the thread. OCR jobs are enqueued for
// image and PDF attachments once everything is stored.
func (s *TicketService) AddMessage(ctx context.Context, actor *domain.User, ticketID string, in AddMessageInput) (*domain.TicketMessage, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("ticket is closed", map[string]any{"status": ticket.Status})
	}
	staff := canHandle(actor, ticket)
	if in.IsInternal && !staff {
		return nil, apperrors.NewForbidden("only handlers may post internal notes")
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: domain.AuthorTypeUser,
		AuthorID:   &actor.ID,
		Body:       in.Body,
		IsInternal: in.IsInternal,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range in.Attachments {
		record := &domain.Attachment{
			TicketID:  ticket.ID,
			MessageID: &msg.ID,
			FileURL:   att.FileURL,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		msg.Attachments = append(msg.Attachments, *record)
	}

	for _, att := range msg.Attachments {
		if att.NeedsOCR() {
			s.enqueue(ctx, domain.JobOCR, att.ID, domain.OCRPayload{
				AttachmentID: att.ID,
				FileURL:      att.FileURL,
				MimeType:     att.MimeType,
			})
		}
	}

	var recipient *string
	switch {
	case msg.IsInternal:
	case actor.ID == ticket.CreatorID:
		recipient = ticket.AssignedUserID
	default:
		recipient = &ticket.CreatorID
	}
	s.publish(ctx, events.New(events.EventTicketMessageAdded, ticket.ID, events.UserActor(actor.ID), events.TicketMessageAddedPayload{
		TicketNumber: ticket.TicketNumber,
		MessageID:    msg.ID,
		AuthorID:     msg.AuthorID,
		RecipientID:  recipient,
		BodyPreview:  stringPreview(msg.Body, 120),
	}))
	s.audit.Log(ctx, domain.AuditEntry{
		UserID:     &actor.ID,
		Action:     domain.AuditMessageAdded,
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Metadata:   map[string]any{"message_id": msg.ID, "attachments": len(msg.Attachments)},
	})
	return msg, nil
}

// Escalate is the manual escalation performed by a handler.
func (s *TicketService) Escalate(ctx context.Context, actor *domain.User, ticketID, reason string) (*EscalationResult, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !canHandle(actor, ticket) {
		return nil, apperrors.NewForbidden("only handlers of the ticket may escalate it")
	}
	if ticket.CurrentLevel == nil {
		return nil, apperrors.NewValidationError("ticket has no hierarchy level", map[string]any{"ticket_id": ticket.ID})
	}

	result, err := s.escalator.Escalate(ctx, EscalateInput{
		TicketID:     ticket.ID,
		CurrentLevel: *ticket.CurrentLevel,
		Reason:       reason,
		FromUserID:   &actor.ID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Log(ctx, domain.AuditEntry{
		UserID:     &actor.ID,
		Action:     domain.AuditTicketEscalated,
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Metadata: map[string]any{
			"from_level": ticket.Level(),
			"to_level":   result.Level,
			"reason":     reason,
		},
	})
	return result, nil
}

// Update applies lifecycle edits. Closed and rejected tickets are frozen. A
// priority change on an open ticket moves the SLA deadline, always counted
// from the creation time.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, in UpdateTicketInput) (*domain.Ticket, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("ticket can no longer be modified", map[string]any{"status": ticket.Status})
	}
	if in.Version != nil && *in.Version != ticket.Version {
		return nil, apperrors.NewConflict("ticket was modified by someone else", map[string]any{
			"expected_version": *in.Version,
			"current_version":  ticket.Version,
		})
	}

	staff := canHandle(actor, ticket)
	isCreator := actor.ID == ticket.CreatorID
	if (in.Priority != nil || in.Status != nil) && !staff {
		return nil, apperrors.NewForbidden("only handlers may change priority or status")
	}
	if (in.Title != nil || in.Description != nil) && !staff && !isCreator {
		return nil, apperrors.NewForbidden("access denied")
	}

	changes := map[string]any{}
	if in.Title != nil {
		ticket.Title = strings.TrimSpace(*in.Title)
		changes["title"] = ticket.Title
	}
	if in.Description != nil {
		ticket.Description = strings.TrimSpace(*in.Description)
		changes["description"] = true
	}
	if in.Priority != nil && *in.Priority != ticket.Priority {
		changes["priority"] = map[string]any{"old": ticket.Priority, "new": *in.Priority}
		ticket.Priority = *in.Priority
		if ticket.Status.Open() {
			ticket.SLADueAt = domain.SLADeadline(ticket.CreatedAt, ticket.Priority)
		}
	}

	oldStatus := ticket.Status
	if in.Status != nil && *in.Status != ticket.Status {
		if !isValidTransition(ticket.Status, *in.Status) {
			return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
				"from": ticket.Status,
				"to":   *in.Status,
			})
		}
		now := s.now().UTC()
		switch *in.Status {
		case domain.TicketStatusResolved:
			ticket.ResolvedAt = &now
		case domain.TicketStatusClosed, domain.TicketStatusRejected:
			ticket.ClosedAt = &now
		case domain.TicketStatusInProgress, domain.TicketStatusPendingInfo, domain.TicketStatusOpen:
			ticket.ResolvedAt = nil
		}
		ticket.Status = *in.Status
		changes["status"] = map[string]any{"old": oldStatus, "new": ticket.Status}
	}

	if len(changes) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.MapError(err)
	}

	if oldStatus != ticket.Status {
		s.publish(ctx, events.New(events.EventTicketStatusChanged, ticket.ID, events.UserActor(actor.ID), events.TicketStatusChangedPayload{
			TicketNumber: ticket.TicketNumber,
			OldStatus:    oldStatus,
			NewStatus:    ticket.Status,
			CreatorID:    ticket.CreatorID,
		}))
	}
	s.audit.Log(ctx, domain.AuditEntry{
		UserID:     &actor.ID,
		Action:     domain.AuditTicketUpdated,
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Metadata:   changes,
	})
	return ticket, nil
}

// Rate lets the creator rate a resolved or closed ticket exactly once.
func (s *TicketService) Rate(ctx context.Context, actor *domain.User, ticketID string, in RateInput) (*domain.Ticket, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != ticket.CreatorID {
		return nil, apperrors.NewForbidden("only the ticket creator may rate it")
	}
	if ticket.Rating != nil {
		return nil, apperrors.NewTerminalState("ticket has already been rated", map[string]any{"ticket_id": ticket.ID})
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("ticket can only be rated once resolved or closed", map[string]any{"status": ticket.Status})
	}

	now := s.now().UTC()
	rating := in.Rating
	ticket.Rating = &rating
	ticket.Feedback = strings.TrimSpace(in.Feedback)
	ticket.RatedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.audit.Log(ctx, domain.AuditEntry{
		UserID:     &actor.ID,
		Action:     domain.AuditTicketRated,
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Metadata:   map[string]any{"rating": rating},
	})
	return ticket, nil
}

// Reanalyze schedules classification and priority prediction for an
// existing ticket.
func (s *TicketService) Reanalyze(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	if !canHandle(actor, ticket) {
		return apperrors.NewForbidden("only handlers may request analysis")
	}
	text := domain.TextPayload{TicketID: ticket.ID, Title: ticket.Title, Description: ticket.Description}
	for _, jobType := range []domain.JobType{domain.JobClassify, domain.JobPriority} {
		job, err := domain.NewJob(jobType, ticket.ID, text)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return apperrors.NewUnavailable("job queue unavailable", err)
		}
	}
	return nil
}

// ListEscalations returns the escalation log visible to the actor.
func (s *TicketService) ListEscalations(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Escalation, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	list, err := s.escalator.ListEscalations(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// ListPredictions returns the AI prediction history of a ticket. Handlers only.
func (s *TicketService) ListPredictions(ctx context.Context, actor *domain.User, ticketID string) ([]domain.AIPrediction, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !canHandle(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	list, err := s.predictions.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

func (s *TicketService) insertWithUniqueNumber(ctx context.Context, ticket *domain.Ticket) error {
	var lastErr error
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		ticket.TicketNumber = s.ticketNumber(ticket.CreatedAt)
		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateTicketNumber) {
			return apperrors.MapError(err)
		}
		lastErr = err
		s.logger.Debug("ticket number collision", zap.String("ticket_number", ticket.TicketNumber))
	}
	return apperrors.NewInternalError(fmt.Errorf("allocate ticket number: %w", lastErr))
}

func (s *TicketService) ticketNumber(createdAt time.Time) string {
	return fmt.Sprintf("%s-%s-%05d", s.prefix, createdAt.Format("20060102"), s.suffix()%100000)
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) loadVisible(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actor.ID != ticket.CreatorID && !canHandle(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) enqueue(ctx context.Context, jobType domain.JobType, targetID string, payload any) {
	if s.queue == nil {
		return
	}
	job, err := domain.NewJob(jobType, targetID, payload)
	if err == nil {
		err = s.queue.Enqueue(ctx, job)
	}
	if err != nil {
		s.logger.Error("enqueue failed",
			zap.String("job_type", string(jobType)),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) validateInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError("invalid input", details)
}

// canHandle reports whether actor works on ticket: admins always, the
// assignee, or a holder of the level's role within the ticket's unit.
func canHandle(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil || !actor.Role.Handler() {
		return false
	}
	if actor.Role.Admin() {
		return true
	}
	if ticket.AssignedUserID != nil && *ticket.AssignedUserID == actor.ID {
		return true
	}
	role, ok := domain.RoleForLevel(ticket.Level())
	if !ok || role != actor.Role {
		return false
	}
	switch ticket.Level() {
	case domain.LevelHOD:
		return sameUnit(actor.DepartmentID, ticket.DepartmentID)
	case domain.LevelDirector:
		return sameUnit(actor.CollegeID, ticket.CollegeID)
	}
	return true
}

func sameUnit(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// ESCALATED is reachable only through the escalation service.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:        {domain.TicketStatusInProgress, domain.TicketStatusPendingInfo, domain.TicketStatusResolved, domain.TicketStatusRejected, domain.TicketStatusClosed},
	domain.TicketStatusInProgress:  {domain.TicketStatusPendingInfo, domain.TicketStatusResolved, domain.TicketStatusRejected, domain.TicketStatusClosed},
	domain.TicketStatusPendingInfo: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusRejected, domain.TicketStatusClosed},
	domain.TicketStatusEscalated:   {domain.TicketStatusInProgress, domain.TicketStatusPendingInfo, domain.TicketStatusResolved, domain.TicketStatusRejected, domain.TicketStatusClosed},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:      {},
	domain.TicketStatusRejected:    {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
