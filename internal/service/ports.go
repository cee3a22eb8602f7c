package service

import (
	"context"

	"github.com/campusvoice/ticket-service/internal/aigateway"
	"github.com/campusvoice/ticket-service/internal/domain"
)

// JobQueue is the producer side of the background job queue. Enqueue returns
// once the job is durably recorded.
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.Job) error
}

// AIGateway is the external AI service as used by enrichment jobs.
type AIGateway interface {
	Classify(ctx context.Context, text, title string) (*aigateway.ClassifyResult, error)
	PredictPriority(ctx context.Context, text, title string) (*aigateway.PriorityResult, error)
	Moderate(ctx context.Context, text string) (*aigateway.ModerationResult, error)
	Summarize(ctx context.Context, title, description string) (*aigateway.SummaryResult, error)
	Embed(ctx context.Context, text string) (*aigateway.EmbeddingResult, error)
	OCR(ctx context.Context, fileURL, mimeType string) (*aigateway.OCRResult, error)
	Model() string
}

// NotificationTransport delivers email, sms and push notifications.
type NotificationTransport interface {
	Send(ctx context.Context, notification domain.NotificationPayload) error
}
