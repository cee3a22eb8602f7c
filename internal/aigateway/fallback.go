package aigateway

import (
	"context"

	"go.uber.org/zap"
)

// Default values served when a synchronous call cannot reach the gateway.
const (
	DefaultCategory = "OTHER"
	DefaultPriority = "MEDIUM"
)

// Predictor is the subset of the gateway used by live, user-facing calls.
type Predictor interface {
	Classify(ctx context.Context, text, title string) (*ClassifyResult, error)
	PredictPriority(ctx context.Context, text, title string) (*PriorityResult, error)
}

// Fallback wraps a Predictor for synchronous request paths. On any gateway
// error it returns a default marked Degraded instead of failing. Queued
// handlers must use the Client directly so failures reach the retry policy.
type Fallback struct {
	predictor Predictor
	logger    *zap.Logger
}

// NewFallback builds the degraded-mode wrapper.
func NewFallback(predictor Predictor, logger *zap.Logger) *Fallback {
	return &Fallback{predictor: predictor, logger: logger.With(zap.String("component", "ai_fallback"))}
}

// Classify never fails.
func (f *Fallback) Classify(ctx context.Context, text, title string) *ClassifyResult {
	result, err := f.predictor.Classify(ctx, text, title)
	if err == nil {
		return result
	}
	f.logger.Warn("classification degraded to default", zap.Error(err))
	zero := 0.0
	return &ClassifyResult{
		Category:   DefaultCategory,
		Confidence: &zero,
		Reasoning:  "AI service unavailable; default category applied",
		Degraded:   true,
	}
}

// PredictPriority never fails.
func (f *Fallback) PredictPriority(ctx context.Context, text, title string) *PriorityResult {
	result, err := f.predictor.PredictPriority(ctx, text, title)
	if err == nil {
		return result
	}
	f.logger.Warn("priority prediction degraded to default", zap.Error(err))
	zero := 0.0
	return &PriorityResult{
		Priority:   DefaultPriority,
		Confidence: &zero,
		Reasoning:  "AI service unavailable; default priority applied",
		Degraded:   true,
	}
}
