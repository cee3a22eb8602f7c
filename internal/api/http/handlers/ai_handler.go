package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusvoice/ticket-service/internal/aigateway"
	"github.com/campusvoice/ticket-service/internal/api/dto"
	"github.com/campusvoice/ticket-service/internal/auth"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

// Suggester returns live AI suggestions. Implementations never fail; they
// degrade to defaults instead.
type Suggester interface {
	Classify(ctx context.Context, text, title string) *aigateway.ClassifyResult
	PredictPriority(ctx context.Context, text, title string) *aigateway.PriorityResult
}

// AIHandler serves synchronous suggestions used while a ticket is drafted.
type AIHandler struct {
	suggester Suggester
}

// NewAIHandler constructs handler.
func NewAIHandler(suggester Suggester) *AIHandler {
	return &AIHandler{suggester: suggester}
}

// Classify POST /ai/classify.
func (h *AIHandler) Classify(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("description required", map[string]any{"description": "required"})
	}

	ctx := c.UserContext()
	category := h.suggester.Classify(ctx, req.Description, req.Title)
	priority := h.suggester.PredictPriority(ctx, req.Description, req.Title)
	return c.JSON(fiber.Map{"data": dto.ClassifyResponse{
		Category:           category.Category,
		CategoryConfidence: category.Confidence,
		Priority:           priority.Priority,
		PriorityConfidence: priority.Confidence,
		Reasoning:          category.Reasoning,
		Degraded:           category.Degraded || priority.Degraded,
	}})
}
