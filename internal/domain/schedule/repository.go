package schedule

import (
	"context"
	"time"
)

// AssignmentRepository reads shift assignments from the external
// time-and-attendance schema. Every method returns assignments whose validity
// range overlaps [start, end], ordered by employee, weekday and start time.
type AssignmentRepository interface {
	ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]Assignment, error)
	ListByDepartment(ctx context.Context, departmentID int, start, end time.Time) ([]Assignment, error)
	ListAll(ctx context.Context, start, end time.Time) ([]Assignment, error)
}
