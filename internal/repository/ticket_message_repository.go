package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	// ListByTicket returns the thread oldest first. Internal notes are only
	// included when includeInternal is set.
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error)
}

// dbtx is satisfied by both the pool and a transaction.
type dbtx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	return insertMessage(ctx, r.pool, msg, time.Time{})
}

// insertMessage writes msg through q. A zero at lets the database stamp
// created_at.
func insertMessage(ctx context.Context, q dbtx, msg *domain.TicketMessage, at time.Time) error {
	var createdAt *time.Time
	if !at.IsZero() {
		createdAt = &at
	}
	return q.QueryRow(ctx, `
        INSERT INTO ticket_messages (ticket_id, author_type, author_id, body, is_internal, created_at)
        VALUES ($1,$2,$3,$4,$5,COALESCE($6, NOW()))
        RETURNING id, created_at`,
		msg.TicketID,
		msg.AuthorType,
		msg.AuthorID,
		msg.Body,
		msg.IsInternal,
		createdAt,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, ticket_id, author_type, author_id, body, is_internal, created_at
        FROM ticket_messages
        WHERE ticket_id=$1 AND ($2 OR NOT is_internal)
        ORDER BY created_at ASC, id ASC`, ticketID, includeInternal)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TicketMessage, error) {
		var msg domain.TicketMessage
		err := row.Scan(&msg.ID, &msg.TicketID, &msg.AuthorType, &msg.AuthorID, &msg.Body, &msg.IsInternal, &msg.CreatedAt)
		return msg, err
	})
}
