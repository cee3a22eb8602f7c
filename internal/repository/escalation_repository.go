package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// EscalationRepository reads the escalation log. Records are only ever
// written by TicketRepository.ApplyEscalation.
type EscalationRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error) {
	const query = `
        SELECT id, ticket_id, from_level, to_level, from_user_id, to_user_id, reason, auto_escalated, created_at
        FROM escalations WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var esc domain.Escalation
		if err := rows.Scan(
			&esc.ID,
			&esc.TicketID,
			&esc.FromLevel,
			&esc.ToLevel,
			&esc.FromUserID,
			&esc.ToUserID,
			&esc.Reason,
			&esc.AutoEscalated,
			&esc.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, esc)
	}
	return result, rows.Err()
}
