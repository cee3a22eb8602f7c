package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	CreatorID      *string
	AssignedUserID *string
	DepartmentID   *string
	CollegeID      *string
	Categories     []domain.TicketCategory
	Statuses       []domain.TicketStatus
	Priorities     []domain.TicketPriority
	Levels         []domain.HierarchyLevel
	ExcludeLevels  []domain.HierarchyLevel
	SLADueBefore   *time.Time
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	OrderBy        string
	Descending     bool
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateEnrichment(ctx context.Context, id string, patch domain.EnrichmentPatch) error
	ApplyEscalation(ctx context.Context, change *domain.EscalationChange) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, creator_id, title, description, category, type, priority, status,
               college_id, department_id, current_level, assigned_user_id, sla_due_at, is_anonymous,
               rating, feedback, rated_at, summary, is_toxic, toxicity_severity, moderation_action,
               category_confidence, priority_confidence, created_at, updated_at, resolved_at, closed_at, version`

var sortableTicketColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"sla_due_at": "sla_due_at",
	"priority":   "priority",
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, creator_id, title, description, category, type, priority, status,
            college_id, department_id, current_level, assigned_user_id, sla_due_at, is_anonymous, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
        RETURNING id, updated_at, version`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CreatorID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Type,
		ticket.Priority,
		ticket.Status,
		ticket.CollegeID,
		ticket.DepartmentID,
		ticket.CurrentLevel,
		ticket.AssignedUserID,
		ticket.SLADueAt,
		ticket.IsAnonymous,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt, &ticket.Version)
	if isUniqueViolation(err, ticketNumberConstraintKey) {
		return ErrDuplicateTicketNumber
	}
	return err
}

// Update writes lifecycle fields. The write only lands when the stored
// version still matches the one the caller read.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, status=$4, assigned_user_id=$5,
            sla_due_at=$6, rating=$7, feedback=$8, rated_at=$9, resolved_at=$10, closed_at=$11,
            version=version+1, updated_at=NOW()
        WHERE id=$12 AND version=$13
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedUserID,
		ticket.SLADueAt,
		ticket.Rating,
		ticket.Feedback,
		ticket.RatedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if IsNotFound(err) {
		if _, getErr := r.GetByID(ctx, ticket.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	return err
}

// UpdateEnrichment writes derived AI fields only. It does not bump the
// version: enrichment never touches routing or lifecycle columns.
func (r *ticketRepository) UpdateEnrichment(ctx context.Context, id string, patch domain.EnrichmentPatch) error {
	if patch.Empty() {
		return nil
	}
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Summary != nil {
		add("summary", *patch.Summary)
	}
	if patch.IsToxic != nil {
		add("is_toxic", *patch.IsToxic)
	}
	if patch.ToxicitySeverity != nil {
		add("toxicity_severity", *patch.ToxicitySeverity)
	}
	if patch.ModerationAction != nil {
		add("moderation_action", *patch.ModerationAction)
	}
	if patch.CategoryConfidence != nil {
		add("category_confidence", *patch.CategoryConfidence)
	}
	if patch.PriorityConfidence != nil {
		add("priority_confidence", *patch.PriorityConfidence)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ApplyEscalation commits an escalation in one transaction. The ticket row is
// only moved when its version and level are still the ones the engine read,
// so two racing escalations from the same level cannot both succeed.
func (r *ticketRepository) ApplyEscalation(ctx context.Context, change *domain.EscalationChange) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	esc := change.Escalation
	cmd, err := tx.Exec(ctx, `
        UPDATE tickets SET status=$1, current_level=$2, assigned_user_id=$3, version=version+1, updated_at=$4
        WHERE id=$5 AND version=$6 AND current_level=$7 AND status NOT IN ($8,$9)`,
		domain.TicketStatusEscalated,
		esc.ToLevel,
		change.NewAssigneeID,
		change.At,
		change.TicketID,
		change.ExpectedVersion,
		esc.FromLevel,
		domain.TicketStatusClosed,
		domain.TicketStatusRejected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	if err := tx.QueryRow(ctx, `
        INSERT INTO escalations (ticket_id, from_level, to_level, from_user_id, to_user_id, reason, auto_escalated, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`,
		change.TicketID,
		esc.FromLevel,
		esc.ToLevel,
		esc.FromUserID,
		esc.ToUserID,
		esc.Reason,
		esc.AutoEscalated,
		change.At,
	).Scan(&esc.ID, &esc.CreatedAt); err != nil {
		return err
	}

	if msg := change.SystemMessage; msg != nil {
		msg.TicketID = change.TicketID
		if err := insertMessage(ctx, tx, msg, change.At); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(filter)

	orderBy := "created_at"
	if col, ok := sortableTicketColumns[filter.OrderBy]; ok {
		orderBy = col
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s %s, id LIMIT %d OFFSET %d`,
		ticketColumns, where, orderBy, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := buildTicketWhere(filter)
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&count)
	return count, err
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	eq := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	in := func(column string, negate bool, values []any) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		op := "IN"
		if negate {
			op = "NOT IN"
		}
		clause := fmt.Sprintf("%s %s (%s)", column, op, strings.Join(placeholders, ","))
		if negate {
			clause = fmt.Sprintf("(%s IS NULL OR %s)", column, clause)
		}
		clauses = append(clauses, clause)
	}

	if filter.CreatorID != nil {
		eq("creator_id", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		eq("assigned_user_id", *filter.AssignedUserID)
	}
	if filter.DepartmentID != nil {
		eq("department_id", *filter.DepartmentID)
	}
	if filter.CollegeID != nil {
		eq("college_id", *filter.CollegeID)
	}
	if len(filter.Categories) > 0 {
		in("category", false, toAny(filter.Categories))
	}
	if len(filter.Statuses) > 0 {
		in("status", false, toAny(filter.Statuses))
	}
	if len(filter.Priorities) > 0 {
		in("priority", false, toAny(filter.Priorities))
	}
	if len(filter.Levels) > 0 {
		in("current_level", false, toAny(filter.Levels))
	}
	if len(filter.ExcludeLevels) > 0 {
		in("current_level", true, toAny(filter.ExcludeLevels))
	}
	if filter.SLADueBefore != nil {
		args = append(args, *filter.SLADueBefore)
		clauses = append(clauses, fmt.Sprintf("sla_due_at < $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CreatorID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Type,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CollegeID,
		&ticket.DepartmentID,
		&ticket.CurrentLevel,
		&ticket.AssignedUserID,
		&ticket.SLADueAt,
		&ticket.IsAnonymous,
		&ticket.Rating,
		&ticket.Feedback,
		&ticket.RatedAt,
		&ticket.Summary,
		&ticket.IsToxic,
		&ticket.ToxicitySeverity,
		&ticket.ModerationAction,
		&ticket.CategoryConfidence,
		&ticket.PriorityConfidence,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
