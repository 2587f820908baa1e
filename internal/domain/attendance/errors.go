package attendance

import "errors"

// Attendance domain errors
var (
	// Mark commands
	ErrDuplicateMark     = errors.New("a mark of the same type already exists within the tolerance window")
	ErrMarkNotFound      = errors.New("mark not found")
	ErrConflictingMarks  = errors.New("the same time cannot be both an entry and an exit")
	ErrNotAutoFixable    = errors.New("day cannot be fixed automatically")
	ErrCalculatedShift   = errors.New("day has a calculated shift, no safe default times")
	ErrNoShiftAssigned   = errors.New("no shift assigned for this day")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrUnknownDataSource = errors.New("unknown data source")

	// General errors
	ErrUnauthorizedScope = errors.New("unauthorized to access this department")
)
