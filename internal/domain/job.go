package domain

import (
	"encoding/json"
	"time"
)

// JobType names a unit of background work.
type JobType string

const (
	JobClassify  JobType = "classify"
	JobPriority  JobType = "priority"
	JobModerate  JobType = "moderate"
	JobSummarize JobType = "summarize"
	JobEmbed     JobType = "embed"
	JobOCR       JobType = "ocr"
	JobNotify    JobType = "notify"
)

// QueueName identifies an independent worker pool.
type QueueName string

const (
	QueueAI           QueueName = "ai"
	QueueOCR          QueueName = "ocr"
	QueueNotification QueueName = "notification"
)

var jobQueue = map[JobType]QueueName{
	JobClassify:  QueueAI,
	JobPriority:  QueueAI,
	JobModerate:  QueueAI,
	JobSummarize: QueueAI,
	JobEmbed:     QueueAI,
	JobOCR:       QueueOCR,
	JobNotify:    QueueNotification,
}

// QueueFor returns the queue a job type runs on.
func QueueFor(t JobType) (QueueName, bool) {
	q, ok := jobQueue[t]
	return q, ok
}

// Job is an enrichment or notification job. Payload is type specific JSON.
type Job struct {
	Type      JobType
	TargetID  string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// TextPayload is the input of the text based AI jobs.
type TextPayload struct {
	TicketID    string `json:"ticket_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// OCRPayload is the input of the ocr job.
type OCRPayload struct {
	AttachmentID string `json:"attachment_id"`
	FileURL      string `json:"file_url"`
	MimeType     string `json:"mime_type"`
}

// NotificationPayload is the input of the notify job.
type NotificationPayload struct {
	Channel    NotificationChannel `json:"type"`
	UserID     string              `json:"user_id,omitempty"`
	Email      string              `json:"email,omitempty"`
	Phone      string              `json:"phone,omitempty"`
	Subject    string              `json:"subject"`
	Message    string              `json:"message"`
	EntityType string              `json:"entity_type,omitempty"`
	EntityID   string              `json:"entity_id,omitempty"`
}

// NewJob marshals payload into a job.
func NewJob(t JobType, targetID string, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{Type: t, TargetID: targetID, Payload: raw, CreatedAt: time.Now().UTC()}, nil
}
