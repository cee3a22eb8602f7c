package domain

import "time"

// TicketCategory drives the routing family of a ticket.
type TicketCategory string

const (
	CategoryTransport      TicketCategory = "TRANSPORT"
	CategoryHostel         TicketCategory = "HOSTEL"
	CategoryAcademic       TicketCategory = "ACADEMIC"
	CategoryAdministrative TicketCategory = "ADMINISTRATIVE"
	CategoryOther          TicketCategory = "OTHER"
)

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryTransport, CategoryHostel, CategoryAcademic, CategoryAdministrative, CategoryOther:
		return true
	}
	return false
}

// TicketType distinguishes complaints from suggestions.
type TicketType string

const (
	TicketTypeComplaint  TicketType = "COMPLAINT"
	TicketTypeSuggestion TicketType = "SUGGESTION"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingInfo TicketStatus = "PENDING_INFO"
	TicketStatusEscalated   TicketStatus = "ESCALATED"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusRejected    TicketStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingInfo, TicketStatusEscalated,
		TicketStatusResolved, TicketStatusClosed, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no routing field may change anymore.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusRejected
}

// Open reports whether the ticket is still being worked on, i.e. its SLA
// deadline is still meaningful.
func (s TicketStatus) Open() bool {
	switch s {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusRejected:
		return false
	}
	return true
}

// SweepableStatuses are the statuses the SLA sweeper considers for
// automatic escalation.
var SweepableStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPendingInfo,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// SLAHours maps a priority to its resolution window.
var SLAHours = map[TicketPriority]int{
	TicketPriorityLow:      72,
	TicketPriorityMedium:   48,
	TicketPriorityHigh:     24,
	TicketPriorityCritical: 6,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	_, ok := SLAHours[p]
	return ok
}

// SLADeadline anchors the due time of a ticket to its creation time.
func SLADeadline(createdAt time.Time, priority TicketPriority) time.Time {
	hours, ok := SLAHours[priority]
	if !ok {
		hours = SLAHours[TicketPriorityMedium]
	}
	return createdAt.Add(time.Duration(hours) * time.Hour)
}

// ModerationAction is the action recommended by content moderation.
type ModerationAction string

const (
	ModerationAllow ModerationAction = "ALLOW"
	ModerationFlag  ModerationAction = "FLAG"
	ModerationBlock ModerationAction = "BLOCK"
)

// Ticket is the aggregate for complaints and suggestions.
type Ticket struct {
	ID             string
	TicketNumber   string
	CreatorID      string
	Title          string
	Description    string
	Category       TicketCategory
	Type           TicketType
	Priority       TicketPriority
	Status         TicketStatus
	CollegeID      *string
	DepartmentID   *string
	CurrentLevel   *HierarchyLevel
	AssignedUserID *string
	SLADueAt       time.Time
	IsAnonymous    bool

	Rating   *int
	Feedback string
	RatedAt  *time.Time

	Summary            string
	IsToxic            bool
	ToxicitySeverity   string
	ModerationAction   ModerationAction
	CategoryConfidence *float64
	PriorityConfidence *float64

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
	ClosedAt   *time.Time

	// Version increases on every lifecycle or routing write and backs the
	// optimistic concurrency check.
	Version int
}

// Level returns the current hierarchy level or an empty value.
func (t Ticket) Level() HierarchyLevel {
	if t.CurrentLevel == nil {
		return ""
	}
	return *t.CurrentLevel
}

// EnrichmentPatch carries derived AI fields written by background jobs. Nil
// fields are left untouched.
type EnrichmentPatch struct {
	Summary            *string
	IsToxic            *bool
	ToxicitySeverity   *string
	ModerationAction   *ModerationAction
	CategoryConfidence *float64
	PriorityConfidence *float64
}

// Empty reports whether the patch changes nothing.
func (p EnrichmentPatch) Empty() bool {
	return p.Summary == nil && p.IsToxic == nil && p.ToxicitySeverity == nil &&
		p.ModerationAction == nil && p.CategoryConfidence == nil && p.PriorityConfidence == nil
}
