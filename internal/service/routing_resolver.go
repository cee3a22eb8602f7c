package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/repository"
)

// RoutingDecision is the initial owner of a ticket. AssignedUserID is nil when
// nobody holds the level yet; the ticket then waits at the level unassigned.
type RoutingDecision struct {
	AssignedUserID *string
	Level          domain.HierarchyLevel
}

// AssigneeScope is the organisational context used to pick an assignee.
type AssigneeScope struct {
	CollegeID    *string
	DepartmentID *string
}

// RoutingResolver maps tickets onto the hierarchy. It only reads.
type RoutingResolver struct {
	users  repository.UserRepository
	org    repository.OrganizationRepository
	logger *zap.Logger
}

// NewRoutingResolver constructs the resolver.
func NewRoutingResolver(users repository.UserRepository, org repository.OrganizationRepository, logger *zap.Logger) *RoutingResolver {
	return &RoutingResolver{users: users, org: org, logger: logger.With(zap.String("component", "routing"))}
}

// ResolveInitialRouting decides the entry level and owner of a new ticket.
func (r *RoutingResolver) ResolveInitialRouting(ctx context.Context, category domain.TicketCategory, collegeID, departmentID *string) (RoutingDecision, error) {
	if level, ok := domain.DedicatedEntryLevel(category); ok {
		assignee, err := r.ResolveAssignee(ctx, level, AssigneeScope{})
		if err != nil {
			return RoutingDecision{}, err
		}
		return RoutingDecision{AssignedUserID: assignee, Level: level}, nil
	}

	scope := AssigneeScope{CollegeID: collegeID, DepartmentID: departmentID}
	if departmentID != nil {
		dept, err := r.org.GetDepartment(ctx, *departmentID)
		switch {
		case repository.IsNotFound(err):
			r.logger.Warn("unknown department on ticket; routing by college", zap.String("department_id", *departmentID))
			scope.DepartmentID = nil
		case err != nil:
			return RoutingDecision{}, err
		case scope.CollegeID == nil:
			scope.CollegeID = &dept.CollegeID
		}
	}

	level := domain.LevelCampusAdmin
	switch {
	case scope.DepartmentID != nil:
		level = domain.LevelHOD
	case scope.CollegeID != nil:
		level = domain.LevelDirector
	}

	assignee, err := r.ResolveAssignee(ctx, level, scope)
	if err != nil {
		return RoutingDecision{}, err
	}
	return RoutingDecision{AssignedUserID: assignee, Level: level}, nil
}

// ResolveAssignee picks a concrete user for level. The designated head of the
// department or college wins; otherwise any active holder of the role within
// scope. A nil result with a nil error means nobody is eligible.
func (r *RoutingResolver) ResolveAssignee(ctx context.Context, level domain.HierarchyLevel, scope AssigneeScope) (*string, error) {
	role, ok := domain.RoleForLevel(level)
	if !ok {
		return nil, nil
	}

	switch level {
	case domain.LevelHOD:
		if scope.DepartmentID == nil {
			return nil, nil
		}
		dept, err := r.org.GetDepartment(ctx, *scope.DepartmentID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		if dept != nil {
			if id, err := r.designated(ctx, dept.HodID); err != nil || id != nil {
				return id, err
			}
		}
		return r.anyActive(ctx, role, repository.UserScope{DepartmentID: scope.DepartmentID})

	case domain.LevelDirector:
		collegeID, err := r.collegeOf(ctx, scope)
		if err != nil || collegeID == nil {
			return nil, err
		}
		college, err := r.org.GetCollege(ctx, *collegeID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		if college != nil {
			if id, err := r.designated(ctx, college.DirectorID); err != nil || id != nil {
				return id, err
			}
		}
		return r.anyActive(ctx, role, repository.UserScope{CollegeID: collegeID})

	default:
		return r.anyActive(ctx, role, repository.UserScope{})
	}
}

func (r *RoutingResolver) collegeOf(ctx context.Context, scope AssigneeScope) (*string, error) {
	if scope.CollegeID != nil {
		return scope.CollegeID, nil
	}
	if scope.DepartmentID == nil {
		return nil, nil
	}
	dept, err := r.org.GetDepartment(ctx, *scope.DepartmentID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dept.CollegeID, nil
}

func (r *RoutingResolver) designated(ctx context.Context, userID *string) (*string, error) {
	if userID == nil {
		return nil, nil
	}
	user, err := r.users.GetByID(ctx, *userID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, nil
	}
	return &user.ID, nil
}

func (r *RoutingResolver) anyActive(ctx context.Context, role domain.UserRole, scope repository.UserScope) (*string, error) {
	user, err := r.users.FindActiveByRole(ctx, role, scope)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user.ID, nil
}
