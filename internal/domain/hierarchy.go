package domain

// HierarchyLevel is a rung of the escalation chain.
type HierarchyLevel string

const (
	LevelTransportIncharge HierarchyLevel = "TRANSPORT_INCHARGE"
	LevelHostelWarden      HierarchyLevel = "HOSTEL_WARDEN"
	LevelHOD               HierarchyLevel = "HOD"
	LevelDirector          HierarchyLevel = "DIRECTOR"
	LevelCampusAdmin       HierarchyLevel = "CAMPUS_ADMIN"
	LevelSystemAdmin       HierarchyLevel = "SYSTEM_ADMIN"
)

// levelSuccessor is the fixed escalation chain. SYSTEM_ADMIN has no entry.
var levelSuccessor = map[HierarchyLevel]HierarchyLevel{
	LevelTransportIncharge: LevelSystemAdmin,
	LevelHostelWarden:      LevelSystemAdmin,
	LevelHOD:               LevelDirector,
	LevelDirector:          LevelCampusAdmin,
	LevelCampusAdmin:       LevelSystemAdmin,
}

// levelRole names the user role that staffs each level.
var levelRole = map[HierarchyLevel]UserRole{
	LevelTransportIncharge: RoleTransportIncharge,
	LevelHostelWarden:      RoleHostelWarden,
	LevelHOD:               RoleHOD,
	LevelDirector:          RoleDirector,
	LevelCampusAdmin:       RoleCampusAdmin,
	LevelSystemAdmin:       RoleSystemAdmin,
}

// categoryEntry lists the categories that bypass the department chain. Every
// other category enters at HOD, DIRECTOR or CAMPUS_ADMIN depending on what
// organisational context the ticket carries.
var categoryEntry = map[TicketCategory]HierarchyLevel{
	CategoryTransport: LevelTransportIncharge,
	CategoryHostel:    LevelHostelWarden,
}

// Valid reports whether l is a known level.
func (l HierarchyLevel) Valid() bool {
	_, ok := levelRole[l]
	return ok
}

// Terminal reports whether l has no successor.
func (l HierarchyLevel) Terminal() bool {
	_, ok := levelSuccessor[l]
	return l.Valid() && !ok
}

// NextLevel returns the successor of l. The second result is false for
// SYSTEM_ADMIN and unknown levels.
func NextLevel(l HierarchyLevel) (HierarchyLevel, bool) {
	next, ok := levelSuccessor[l]
	return next, ok
}

// RoleForLevel returns the role holding a level.
func RoleForLevel(l HierarchyLevel) (UserRole, bool) {
	role, ok := levelRole[l]
	return role, ok
}

// DedicatedEntryLevel returns the fixed entry level for categories that skip
// the department chain.
func DedicatedEntryLevel(c TicketCategory) (HierarchyLevel, bool) {
	level, ok := categoryEntry[c]
	return level, ok
}

// EscalationPath walks the chain from l up to the terminal level, l excluded.
func EscalationPath(l HierarchyLevel) []HierarchyLevel {
	var path []HierarchyLevel
	seen := map[HierarchyLevel]bool{l: true}
	for next, ok := NextLevel(l); ok; next, ok = NextLevel(next) {
		if seen[next] {
			break
		}
		seen[next] = true
		path = append(path, next)
	}
	return path
}

// AutoEscalatableLevels are the levels the SLA sweeper may move on its own.
// CAMPUS_ADMIN is left to a human and SYSTEM_ADMIN has nowhere to go.
var AutoEscalatableLevels = []HierarchyLevel{
	LevelTransportIncharge,
	LevelHostelWarden,
	LevelHOD,
	LevelDirector,
}
