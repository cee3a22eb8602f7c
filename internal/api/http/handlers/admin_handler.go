package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/campusvoice/ticket-service/internal/api/dto"
	"github.com/campusvoice/ticket-service/internal/persistence"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

// SweepRunner runs one SLA sweep under the cluster lock.
type SweepRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// AdminHandler exposes operator actions.
type AdminHandler struct {
	sweeps SweepRunner
}

// NewAdminHandler constructs handler.
func NewAdminHandler(sweeps SweepRunner) *AdminHandler {
	return &AdminHandler{sweeps: sweeps}
}

// RunSweep POST /admin/sla/sweep.
func (h *AdminHandler) RunSweep(c *fiber.Ctx) error {
	escalated, err := h.sweeps.RunOnce(c.UserContext())
	if errors.Is(err, persistence.ErrLockHeld) {
		return apperrors.NewConflict("a sweep is already running", nil)
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{Escalated: escalated}})
}
