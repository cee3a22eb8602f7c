package aigateway

import "encoding/json"

// Endpoint paths relative to the gateway base URL.
const (
	EndpointClassify   = "classify-ticket"
	EndpointPriority   = "predict-priority"
	EndpointModerate   = "moderate"
	EndpointSummarize  = "summarize-ticket"
	EndpointEmbeddings = "embeddings"
	EndpointOCR        = "ocr"
)

// envelope is the common response wrapper of every endpoint.
type envelope struct {
	Success bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

type textRequest struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

type summarizeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ocrRequest struct {
	FileURL  string `json:"fileUrl"`
	MimeType string `json:"mimeType"`
}

// ClassifyResult is the category suggested for a ticket.
type ClassifyResult struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	// Degraded is set by Fallback when the value is a default, not a prediction.
	Degraded bool           `json:"degraded,omitempty"`
	Raw      map[string]any `json:"-"`
}

// PriorityResult is the advisory priority of a ticket.
type PriorityResult struct {
	Priority   string         `json:"priority"`
	Confidence *float64       `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Degraded   bool           `json:"degraded,omitempty"`
	Raw        map[string]any `json:"-"`
}

// ModerationResult is the toxicity verdict for ticket text.
type ModerationResult struct {
	IsToxic    bool           `json:"isToxic"`
	Severity   string         `json:"severity"`
	Action     string         `json:"action"`
	Categories []string       `json:"categories"`
	Confidence *float64       `json:"confidence"`
	Raw        map[string]any `json:"-"`
}

// SummaryResult is a short summary of a ticket.
type SummaryResult struct {
	Summary string         `json:"summary"`
	Raw     map[string]any `json:"-"`
}

// EmbeddingResult is the vector representation of ticket text.
type EmbeddingResult struct {
	Embedding []float64 `json:"embedding"`
	Model     string    `json:"model"`
}

// OCRResult is the text extracted from an attachment.
type OCRResult struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}
