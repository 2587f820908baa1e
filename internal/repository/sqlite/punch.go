package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/mattn/go-sqlite3"
)

type punchRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewPunchRepository(db *database.SQLiteDB) attendance.PunchRepository {
	return &punchRepositoryImpl{db: db}
}

const punchColumns = `c.userid, c.check_time, c.check_type, c.sensor_id`

func (r *punchRepositoryImpl) ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]attendance.Punch, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx, `
		SELECT `+punchColumns+`
		FROM checkinout c
		WHERE c.userid = ? AND c.check_time >= ? AND c.check_time < ?
		ORDER BY c.check_time, c.check_type`,
		employeeID, formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query punches of employee %d: %w", employeeID, err)
	}
	return scanPunches(rows)
}

func (r *punchRepositoryImpl) ListByDepartment(ctx context.Context, departmentID int, start, end time.Time) ([]attendance.Punch, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx, `
		SELECT `+punchColumns+`
		FROM checkinout c
		JOIN userinfo u ON u.userid = c.userid
		WHERE u.dept_id = ? AND c.check_time >= ? AND c.check_time < ?
		ORDER BY c.userid, c.check_time, c.check_type`,
		departmentID, formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query punches of department %d: %w", departmentID, err)
	}
	return scanPunches(rows)
}

func (r *punchRepositoryImpl) ListAll(ctx context.Context, start, end time.Time) ([]attendance.Punch, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx, `
		SELECT `+punchColumns+`
		FROM checkinout c
		WHERE c.check_time >= ? AND c.check_time < ?
		ORDER BY c.userid, c.check_time, c.check_type`,
		formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	return scanPunches(rows)
}

func (r *punchRepositoryImpl) Create(ctx context.Context, p attendance.Punch) error {
	_, err := getQuerier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO checkinout (userid, check_time, check_type, sensor_id) VALUES (?, ?, ?, ?)`,
		p.EmployeeID, formatTimestamp(p.Time), int(p.Direction), p.SensorID)
	if err != nil {
		return fmt.Errorf("failed to insert punch: %w", err)
	}
	return nil
}

func (r *punchRepositoryImpl) Delete(ctx context.Context, employeeID int64, at time.Time, direction attendance.Direction) (int64, error) {
	res, err := getQuerier(ctx, r.db).ExecContext(ctx,
		`DELETE FROM checkinout WHERE userid = ? AND check_time = ? AND check_type = ?`,
		employeeID, formatTimestamp(at), int(direction))
	if err != nil {
		return 0, fmt.Errorf("failed to delete punch: %w", err)
	}
	return res.RowsAffected()
}

func (r *punchRepositoryImpl) UpdateDirection(ctx context.Context, employeeID int64, at time.Time, direction attendance.Direction) (int64, error) {
	res, err := getQuerier(ctx, r.db).ExecContext(ctx,
		`UPDATE checkinout SET check_type = ? WHERE userid = ? AND check_time = ?`,
		int(direction), employeeID, formatTimestamp(at))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, attendance.ErrConflictingMarks
		}
		return 0, fmt.Errorf("failed to update punch direction: %w", err)
	}
	return res.RowsAffected()
}

func (r *punchRepositoryImpl) DeleteDay(ctx context.Context, employeeID int64, day time.Time) (int64, error) {
	start := attendance.Day(day)
	res, err := getQuerier(ctx, r.db).ExecContext(ctx,
		`DELETE FROM checkinout WHERE userid = ? AND check_time >= ? AND check_time < ?`,
		employeeID, formatTimestamp(start), formatTimestamp(start.AddDate(0, 0, 1)))
	if err != nil {
		return 0, fmt.Errorf("failed to delete punches of day: %w", err)
	}
	return res.RowsAffected()
}

func scanPunches(rows *sql.Rows) ([]attendance.Punch, error) {
	defer rows.Close()

	var punches []attendance.Punch
	for rows.Next() {
		var (
			p         attendance.Punch
			checkTime string
			checkType int
		)
		if err := rows.Scan(&p.EmployeeID, &checkTime, &checkType, &p.SensorID); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		t, err := parseTimestamp(checkTime)
		if err != nil {
			return nil, fmt.Errorf("invalid check_time %q: %w", checkTime, err)
		}
		p.Time = t
		p.Direction = attendance.Direction(checkType)
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punches: %w", err)
	}
	return punches, nil
}
