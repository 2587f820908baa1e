package attendance

import (
	"context"
	"time"
)

// PunchRepository defines data access methods for raw clock punches.
// Punches are keyed by (employee, time, direction); there is no surrogate id.
type PunchRepository interface {
	// ListByEmployee returns punches with start <= time < end, ordered by time.
	ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]Punch, error)

	// ListByDepartment returns punches of a department's employees, ordered by
	// employee and time.
	ListByDepartment(ctx context.Context, departmentID int, start, end time.Time) ([]Punch, error)

	// ListAll returns every punch in the window, ordered by employee and time.
	ListAll(ctx context.Context, start, end time.Time) ([]Punch, error)

	Create(ctx context.Context, punch Punch) error

	// Delete removes the exact (employee, time, direction) punch and reports
	// how many rows were removed.
	Delete(ctx context.Context, employeeID int64, at time.Time, direction Direction) (int64, error)

	// UpdateDirection rewrites the direction of every punch of the employee at
	// the given time.
	UpdateDirection(ctx context.Context, employeeID int64, at time.Time, direction Direction) (int64, error)

	// DeleteDay removes every punch of the employee on the calendar day.
	DeleteDay(ctx context.Context, employeeID int64, day time.Time) (int64, error)
}
