package dto

import (
	"time"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Type         domain.TicketType     `json:"type"`
	Priority     domain.TicketPriority `json:"priority"`
	CollegeID    *string               `json:"college_id"`
	DepartmentID *string               `json:"department_id"`
	IsAnonymous  bool                  `json:"is_anonymous"`
}

// UpdateTicketRequest payload. Absent fields are left unchanged.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      *domain.TicketStatus   `json:"status"`
	Version     *int                   `json:"version"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body        string              `json:"body"`
	IsInternal  bool                `json:"is_internal"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest describes an uploaded file. Uploads go to external
// storage; only the reference is sent here.
type AttachmentRequest struct {
	FileURL   string `json:"file_url"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// RateRequest payload.
type RateRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID                 string                  `json:"id"`
	TicketNumber       string                  `json:"ticket_number"`
	CreatorID          *string                 `json:"creator_id,omitempty"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	Category           domain.TicketCategory   `json:"category"`
	Type               domain.TicketType       `json:"type"`
	Priority           domain.TicketPriority   `json:"priority"`
	Status             domain.TicketStatus     `json:"status"`
	CollegeID          *string                 `json:"college_id"`
	DepartmentID       *string                 `json:"department_id"`
	CurrentLevel       *domain.HierarchyLevel  `json:"current_level"`
	AssignedUserID     *string                 `json:"assigned_user_id"`
	SLADueAt           time.Time               `json:"sla_due_at"`
	IsAnonymous        bool                    `json:"is_anonymous"`
	Rating             *int                    `json:"rating,omitempty"`
	Feedback           string                  `json:"feedback,omitempty"`
	Summary            string                  `json:"summary,omitempty"`
	IsToxic            bool                    `json:"is_toxic"`
	ModerationAction   domain.ModerationAction `json:"moderation_action,omitempty"`
	CategoryConfidence *float64                `json:"category_confidence,omitempty"`
	PriorityConfidence *float64                `json:"priority_confidence,omitempty"`
	Version            int                     `json:"version"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	ResolvedAt         *time.Time              `json:"resolved_at,omitempty"`
	ClosedAt           *time.Time              `json:"closed_at,omitempty"`
}

// TicketDetailResponse is a ticket with its thread.
type TicketDetailResponse struct {
	TicketResponse
	Messages []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents thread message.
type TicketMessageResponse struct {
	ID          string                   `json:"id"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	Body        string                   `json:"body"`
	IsInternal  bool                     `json:"is_internal"`
	Attachments []AttachmentResponse     `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID           string `json:"id"`
	FileName     string `json:"file_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	URL          string `json:"url"`
	OCRProcessed bool   `json:"ocr_processed"`
	OCRText      string `json:"ocr_text,omitempty"`
}

// EscalationResponse is one entry of the escalation log.
type EscalationResponse struct {
	ID            string                `json:"id"`
	FromLevel     domain.HierarchyLevel `json:"from_level"`
	ToLevel       domain.HierarchyLevel `json:"to_level"`
	FromUserID    *string               `json:"from_user_id"`
	ToUserID      *string               `json:"to_user_id"`
	Reason        string                `json:"reason"`
	AutoEscalated bool                  `json:"auto_escalated"`
	CreatedAt     time.Time             `json:"created_at"`
}

// EscalateResponse reports the outcome of a manual escalation.
type EscalateResponse struct {
	Level             domain.HierarchyLevel `json:"level"`
	AssignedUserID    *string               `json:"assigned_user_id"`
	EscalationCreated bool                  `json:"escalation_created"`
}

// PredictionResponse is one stored AI prediction.
type PredictionResponse struct {
	ID         string                `json:"id"`
	Type       domain.PredictionType `json:"type"`
	Result     map[string]any        `json:"result"`
	Confidence *float64              `json:"confidence"`
	Model      string                `json:"model"`
	CreatedAt  time.Time             `json:"created_at"`
}
