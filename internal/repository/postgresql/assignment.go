package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type assignmentRepositoryImpl struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) schedule.AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

// Rows without a time slot are kept (LEFT JOIN) and filtered during
// expansion.
const assignmentSelect = `
	SELECT us.userid, us.sch_id, s.sch_name, st.begin_day, us.begin_date, us.end_date,
		tt.time_name, tt.in_time::text, tt.out_time::text
	FROM user_shift us
	JOIN schedule s ON s.sch_id = us.sch_id
	LEFT JOIN sch_time st ON st.sch_id = us.sch_id
	LEFT JOIN time_table tt ON tt.time_id = st.time_id
`

const assignmentOrder = ` ORDER BY us.userid, st.begin_day, tt.in_time`

// ListByEmployee implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + `
		WHERE us.userid = $1 AND us.begin_date <= $3 AND us.end_date >= $2
	` + assignmentOrder

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignments of employee %d: %w", employeeID, err)
	}
	return scanAssignments(rows)
}

// ListByDepartment implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListByDepartment(ctx context.Context, departmentID int, start, end time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + `
		JOIN userinfo u ON u.userid = us.userid
		WHERE u.dept_id = $1 AND us.begin_date <= $3 AND us.end_date >= $2
	` + assignmentOrder

	rows, err := q.Query(ctx, query, departmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignments of department %d: %w", departmentID, err)
	}
	return scanAssignments(rows)
}

// ListAll implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListAll(ctx context.Context, start, end time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + `
		WHERE us.begin_date <= $2 AND us.end_date >= $1
	` + assignmentOrder

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignments: %w", err)
	}
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]schedule.Assignment, error) {
	defer rows.Close()

	var out []schedule.Assignment
	for rows.Next() {
		var (
			a                   schedule.Assignment
			weekday             *int
			begin, end          *time.Time
			timeName, in, outTm *string
		)
		if err := rows.Scan(&a.EmployeeID, &a.ScheduleID, &a.ScheduleName, &weekday, &begin, &end, &timeName, &in, &outTm); err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}

		if weekday != nil {
			a.Weekday = *weekday
		}
		if begin != nil {
			a.BeginDate = *begin
		}
		if end != nil {
			a.EndDate = *end
		}
		if timeName != nil {
			a.TimeName = *timeName
		}
		a.Start = parseOptionalTime(in)
		a.End = parseOptionalTime(outTm)

		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift assignments: %w", err)
	}
	return out, nil
}

func parseOptionalTime(s *string) *schedule.TimeOfDay {
	if s == nil {
		return nil
	}
	t, err := schedule.ParseTimeOfDay(*s)
	if err != nil {
		return nil
	}
	return &t
}
