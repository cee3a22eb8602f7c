package domain

import "time"

// College groups departments and has a designated director.
type College struct {
	ID         string
	Name       string
	Code       string
	DirectorID *string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Department belongs to a college and has a designated head.
type Department struct {
	ID        string
	CollegeID string
	Name      string
	Code      string
	HodID     *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
