package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
)

type assignmentRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewAssignmentRepository(db *database.SQLiteDB) schedule.AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

const assignmentSelect = `
	SELECT us.userid, us.sch_id, s.sch_name, st.begin_day, us.begin_date, us.end_date,
		tt.time_name, tt.in_time, tt.out_time
	FROM user_shift us
	JOIN schedule s ON s.sch_id = us.sch_id
	LEFT JOIN sch_time st ON st.sch_id = us.sch_id
	LEFT JOIN time_table tt ON tt.time_id = st.time_id
`

const assignmentOrder = ` ORDER BY us.userid, st.begin_day, tt.in_time`

func (r *assignmentRepositoryImpl) ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]schedule.Assignment, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx, assignmentSelect+`
		WHERE us.userid = ? AND us.begin_date <= ? AND us.end_date >= ?`+assignmentOrder,
		employeeID, end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignments of employee %d: %w", employeeID, err)
	}
	return scanAssignments(rows)
}

func (r *assignmentRepositoryImpl) ListByDepartment(ctx context.Context, departmentID int, start, end time.Time) ([]schedule.Assignment, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx, assignmentSelect+`
		JOIN userinfo u ON u.userid = us.userid
		WHERE u.dept_id = ? AND us.begin_date <= ? AND us.end_date >= ?`+assignmentOrder,
		departmentID, end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignments of department %d: %w", departmentID, err)
	}
	return scanAssignments(rows)
}

func (r *assignmentRepositoryImpl) ListAll(ctx context.Context, start, end time.Time) ([]schedule.Assignment, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx, assignmentSelect+`
		WHERE us.begin_date <= ? AND us.end_date >= ?`+assignmentOrder,
		end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignments: %w", err)
	}
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]schedule.Assignment, error) {
	defer rows.Close()

	var out []schedule.Assignment
	for rows.Next() {
		var (
			a                     schedule.Assignment
			weekday               sql.NullInt64
			begin, end            sql.NullString
			timeName, in, outTime sql.NullString
		)
		if err := rows.Scan(&a.EmployeeID, &a.ScheduleID, &a.ScheduleName, &weekday, &begin, &end, &timeName, &in, &outTime); err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}

		a.Weekday = int(weekday.Int64)
		a.BeginDate = parseDate(begin)
		a.EndDate = parseDate(end)
		a.TimeName = timeName.String
		a.Start = parseTimeOfDay(in)
		a.End = parseTimeOfDay(outTime)

		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift assignments: %w", err)
	}
	return out, nil
}

func parseDate(s sql.NullString) time.Time {
	if !s.Valid || len(s.String) < len(dateLayout) {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, s.String[:len(dateLayout)], time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimeOfDay(s sql.NullString) *schedule.TimeOfDay {
	if !s.Valid {
		return nil
	}
	t, err := schedule.ParseTimeOfDay(s.String)
	if err != nil {
		return nil
	}
	return &t
}
