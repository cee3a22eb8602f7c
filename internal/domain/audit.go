package domain

import "time"

// AuditEntry is an append-only record of a user or system action.
type AuditEntry struct {
	ID         string
	UserID     *string
	Action     string
	EntityType string
	EntityID   *string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Audit actions emitted by the ticket lifecycle.
const (
	AuditTicketCreated   = "TICKET_CREATED"
	AuditTicketUpdated   = "TICKET_UPDATED"
	AuditTicketEscalated = "TICKET_ESCALATED"
	AuditTicketRated     = "TICKET_RATED"
	AuditMessageAdded    = "TICKET_MESSAGE_ADDED"
)
