package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// PredictionRepository stores the AI prediction history.
type PredictionRepository interface {
	Create(ctx context.Context, prediction *domain.AIPrediction) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AIPrediction, error)
}

// EmbeddingRepository keeps one vector per ticket.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, embedding *domain.Embedding) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Embedding, error)
}

type predictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository builds repository.
func NewPredictionRepository(pool *pgxpool.Pool) PredictionRepository {
	return &predictionRepository{pool: pool}
}

func (r *predictionRepository) Create(ctx context.Context, prediction *domain.AIPrediction) error {
	const query = `
        INSERT INTO ai_predictions (ticket_id, prediction_type, result, confidence, model)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		prediction.TicketID,
		prediction.Type,
		prediction.Result,
		prediction.Confidence,
		prediction.Model,
	).Scan(&prediction.ID, &prediction.CreatedAt)
}

func (r *predictionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AIPrediction, error) {
	const query = `
        SELECT id, ticket_id, prediction_type, result, confidence, model, created_at
        FROM ai_predictions WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AIPrediction
	for rows.Next() {
		var p domain.AIPrediction
		if err := rows.Scan(&p.ID, &p.TicketID, &p.Type, &p.Result, &p.Confidence, &p.Model, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

type embeddingRepository struct {
	pool *pgxpool.Pool
}

// NewEmbeddingRepository builds repository.
func NewEmbeddingRepository(pool *pgxpool.Pool) EmbeddingRepository {
	return &embeddingRepository{pool: pool}
}

// Upsert overwrites the vector of the ticket, so a redelivered embed job
// leaves exactly one row behind.
func (r *embeddingRepository) Upsert(ctx context.Context, embedding *domain.Embedding) error {
	const query = `
        INSERT INTO ticket_embeddings (ticket_id, vector, model, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (ticket_id) DO UPDATE SET vector=EXCLUDED.vector, model=EXCLUDED.model, updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, embedding.TicketID, embedding.Vector, embedding.Model).Scan(&embedding.UpdatedAt)
}

func (r *embeddingRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Embedding, error) {
	const query = `SELECT ticket_id, vector, model, updated_at FROM ticket_embeddings WHERE ticket_id=$1`
	var e domain.Embedding
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&e.TicketID, &e.Vector, &e.Model, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
