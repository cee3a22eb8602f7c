package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
)

// Actor identifies who caused an event. UserID is nil for system actions
// such as SLA sweeps.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
	System bool    `json:"system,omitempty"`
}

// SystemActor is the actor of automatic transitions.
var SystemActor = Actor{System: true}

// UserActor returns the actor for a user-initiated action.
func UserActor(userID string) Actor {
	return Actor{UserID: &userID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber   string                `json:"ticket_number"`
	Title          string                `json:"title"`
	Category       domain.TicketCategory `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Level          domain.HierarchyLevel `json:"level"`
	AssignedUserID *string               `json:"assigned_user_id,omitempty"`
	CreatorID      string                `json:"creator_id"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	TicketNumber  string                `json:"ticket_number"`
	EscalationID  string                `json:"escalation_id"`
	FromLevel     domain.HierarchyLevel `json:"from_level"`
	ToLevel       domain.HierarchyLevel `json:"to_level"`
	ToUserID      *string               `json:"to_user_id,omitempty"`
	CreatorID     string                `json:"creator_id"`
	Reason        string                `json:"reason"`
	AutoEscalated bool                  `json:"auto_escalated"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	CreatorID    string              `json:"creator_id"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	TicketNumber string  `json:"ticket_number"`
	MessageID    string  `json:"message_id"`
	AuthorID     *string `json:"author_id,omitempty"`
	// RecipientID is the other party of the conversation, if known.
	RecipientID *string `json:"recipient_id,omitempty"`
	BodyPreview string  `json:"body_preview"`
}
