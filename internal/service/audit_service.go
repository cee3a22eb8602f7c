package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/repository"
)

// AuditService writes audit entries on a best-effort basis.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates the service. A nil repository turns Log into a no-op.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger.With(zap.String("component", "audit"))}
}

// Log records entry. Failures are logged and never returned so that the
// primary operation is not affected.
func (a *AuditService) Log(ctx context.Context, entry domain.AuditEntry) {
	if a == nil || a.repo == nil {
		return
	}
	if err := a.repo.Create(ctx, &entry); err != nil {
		a.logger.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err),
		)
	}
}
