package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/ticket-service/internal/domain"
)

// OrganizationRepository reads departments and colleges.
type OrganizationRepository interface {
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	GetCollege(ctx context.Context, id string) (*domain.College, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository builds the repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, college_id, name, code, hod_id, is_active, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.CollegeID,
		&dept.Name,
		&dept.Code,
		&dept.HodID,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *organizationRepository) GetCollege(ctx context.Context, id string) (*domain.College, error) {
	const query = `
        SELECT id, name, code, director_id, is_active, created_at, updated_at
        FROM colleges WHERE id=$1`
	var college domain.College
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&college.ID,
		&college.Name,
		&college.Code,
		&college.DirectorID,
		&college.IsActive,
		&college.CreatedAt,
		&college.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &college, nil
}
