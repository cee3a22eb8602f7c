package domain

import (
	"strings"
	"time"
)

// MessageAuthorType indicates who authored a message.
type MessageAuthorType string

const (
	AuthorTypeUser   MessageAuthorType = "USER"
	AuthorTypeSystem MessageAuthorType = "SYSTEM"
)

// TicketMessage captures communications in a ticket thread.
type TicketMessage struct {
	ID          string
	TicketID    string
	AuthorType  MessageAuthorType
	AuthorID    *string
	Body        string
	IsInternal  bool
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment stores metadata for a file attached to a ticket message. OCR
// results are written back by the ocr job.
type Attachment struct {
	ID           string
	TicketID     string
	MessageID    *string
	FileURL      string
	FileName     string
	MimeType     string
	SizeBytes    int64
	OCRText      string
	OCRProcessed bool
	CreatedAt    time.Time
}

// NeedsOCR reports whether text extraction applies to the attachment.
func (a Attachment) NeedsOCR() bool {
	mime := strings.ToLower(a.MimeType)
	return strings.HasPrefix(mime, "image/") || mime == "application/pdf"
}
