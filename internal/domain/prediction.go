package domain

import "time"

// PredictionType names what an AI prediction describes.
type PredictionType string

const (
	PredictionCategorization PredictionType = "CATEGORIZATION"
	PredictionPriority       PredictionType = "PRIORITY"
	PredictionToxicity       PredictionType = "TOXICITY"
	PredictionSummary        PredictionType = "SUMMARY"
)

// AIPrediction is one persisted enrichment result. History is append-only;
// redelivered jobs may leave duplicates.
type AIPrediction struct {
	ID         string
	TicketID   string
	Type       PredictionType
	Result     map[string]any
	Confidence *float64
	Model      string
	CreatedAt  time.Time
}

// Embedding is the single latest vector of a ticket.
type Embedding struct {
	TicketID  string
	Vector    []float64
	Model     string
	UpdatedAt time.Time
}
