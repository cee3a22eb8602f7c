package domain

import "time"

// UserRole enumerates campus roles. Staff roles map onto hierarchy levels.
type UserRole string

const (
	RoleStudent           UserRole = "STUDENT"
	RoleStaff             UserRole = "STAFF"
	RoleHOD               UserRole = "HOD"
	RoleDirector          UserRole = "DIRECTOR"
	RoleCampusAdmin       UserRole = "CAMPUS_ADMIN"
	RoleSystemAdmin       UserRole = "SYSTEM_ADMIN"
	RoleTransportIncharge UserRole = "TRANSPORT_INCHARGE"
	RoleHostelWarden      UserRole = "HOSTEL_WARDEN"
)

// Handler reports whether the role works tickets rather than filing them.
func (r UserRole) Handler() bool {
	return r != RoleStudent && r != RoleStaff && r != ""
}

// Admin reports whether the role may act on any ticket.
func (r UserRole) Admin() bool {
	return r == RoleCampusAdmin || r == RoleSystemAdmin
}

// User is a campus account, either a ticket creator or a handler.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         UserRole
	CollegeID    *string
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
