package domain

import "time"

// AutoEscalationReason is recorded for escalations driven by the SLA sweeper.
const AutoEscalationReason = "Auto-escalated due to SLA breach"

// Escalation is an immutable record of one hierarchy transition.
type Escalation struct {
	ID            string
	TicketID      string
	FromLevel     HierarchyLevel
	ToLevel       HierarchyLevel
	FromUserID    *string
	ToUserID      *string
	Reason        string
	AutoEscalated bool
	CreatedAt     time.Time
}

// EscalationChange is the unit of work committed atomically when a ticket
// moves up one level: the escalation record, the new routing fields and the
// system message summarising the move.
type EscalationChange struct {
	TicketID        string
	ExpectedVersion int
	Escalation      *Escalation
	NewAssigneeID   *string
	SystemMessage   *TicketMessage
	At              time.Time
}
