package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/events"
)

// NotificationService turns domain events into notify jobs.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      JobQueue
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue JobQueue, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger.With(zap.String("component", "notifications")),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
}

// EnqueueNotification schedules delivery and returns immediately. Failures
// are logged only.
func (n *NotificationService) EnqueueNotification(ctx context.Context, req domain.NotificationPayload) {
	if n.queue == nil {
		return
	}
	job, err := domain.NewJob(domain.JobNotify, req.UserID, req)
	if err == nil {
		err = n.queue.Enqueue(ctx, job)
	}
	if err != nil {
		n.logger.Error("notification enqueue failed",
			zap.String("channel", string(req.Channel)),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
	}
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.AssignedUserID == nil {
		return nil
	}
	subject := fmt.Sprintf("New ticket %s assigned to you", payload.TicketNumber)
	message := fmt.Sprintf("%s (%s, %s priority)", payload.Title, payload.Category, payload.Priority)
	n.notifyUser(ctx, *payload.AssignedUserID, subject, message, event.TicketID, true)
	return nil
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.ToUserID != nil {
		subject := fmt.Sprintf("Ticket %s escalated to you", payload.TicketNumber)
		n.notifyUser(ctx, *payload.ToUserID, subject, payload.Reason, event.TicketID, true)
	}
	subject := fmt.Sprintf("Your ticket %s was escalated", payload.TicketNumber)
	message := fmt.Sprintf("Your ticket is now handled at %s level.", payload.ToLevel)
	n.notifyUser(ctx, payload.CreatorID, subject, message, event.TicketID, false)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	subject := fmt.Sprintf("Ticket %s is now %s", payload.TicketNumber, payload.NewStatus)
	message := fmt.Sprintf("Status changed from %s to %s.", payload.OldStatus, payload.NewStatus)
	notifyByEmail := payload.NewStatus == domain.TicketStatusResolved
	n.notifyUser(ctx, payload.CreatorID, subject, message, event.TicketID, notifyByEmail)
	return nil
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.RecipientID == nil {
		return nil
	}
	subject := fmt.Sprintf("New reply on ticket %s", payload.TicketNumber)
	n.notifyUser(ctx, *payload.RecipientID, subject, payload.BodyPreview, event.TicketID, false)
	return nil
}

// notifyUser always creates an in-app notification and, when email delivery
// is configured and requested, an email as well.
func (n *NotificationService) notifyUser(ctx context.Context, userID, subject, message, ticketID string, email bool) {
	base := domain.NotificationPayload{
		UserID:     userID,
		Subject:    subject,
		Message:    message,
		EntityType: "ticket",
		EntityID:   ticketID,
	}
	inApp := base
	inApp.Channel = domain.ChannelInApp
	n.EnqueueNotification(ctx, inApp)

	if email && strings.TrimSpace(n.cfg.EmailFrom) != "" {
		mail := base
		mail.Channel = domain.ChannelEmail
		n.EnqueueNotification(ctx, mail)
	}
}
