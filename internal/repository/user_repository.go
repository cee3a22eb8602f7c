package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// UserScope narrows a role lookup to an organisational unit. Empty fields
// mean "anywhere on campus".
type UserScope struct {
	CollegeID    *string
	DepartmentID *string
}

// UserRepository provides read access to campus accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// FindActiveByRole returns the longest-standing active user holding role
	// within scope, or pgx.ErrNoRows.
	FindActiveByRole(ctx context.Context, role domain.UserRole, scope UserScope) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, phone, role, college_id, department_id, is_active, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) FindActiveByRole(ctx context.Context, role domain.UserRole, scope UserScope) (*domain.User, error) {
	clauses := []string{"role=$1", "is_active=TRUE"}
	args := []any{role}
	if scope.DepartmentID != nil {
		args = append(args, *scope.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if scope.CollegeID != nil {
		args = append(args, *scope.CollegeID)
		clauses = append(clauses, fmt.Sprintf("college_id=$%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at ASC, id LIMIT 1`,
		userColumns, strings.Join(clauses, " AND "))
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.CollegeID,
		&user.DepartmentID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
