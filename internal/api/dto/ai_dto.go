package dto

// ClassifyRequest asks for a live category suggestion.
type ClassifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ClassifyResponse carries the suggestion. Degraded is true when the AI
// service was unreachable and defaults were returned.
type ClassifyResponse struct {
	Category           string   `json:"category"`
	CategoryConfidence *float64 `json:"category_confidence"`
	Priority           string   `json:"priority"`
	PriorityConfidence *float64 `json:"priority_confidence"`
	Reasoning          string   `json:"reasoning,omitempty"`
	Degraded           bool     `json:"degraded"`
}

// SweepResponse reports a manual SLA sweep.
type SweepResponse struct {
	Escalated int `json:"escalated"`
}
