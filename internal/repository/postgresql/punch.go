package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type punchRepositoryImpl struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) attendance.PunchRepository {
	return &punchRepositoryImpl{db: db}
}

const punchColumns = `c.userid, c.check_time, c.check_type, c.sensor_id`

// ListByEmployee implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM checkinout c
		WHERE c.userid = $1 AND c.check_time >= $2 AND c.check_time < $3
		ORDER BY c.check_time, c.check_type
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches of employee %d: %w", employeeID, err)
	}
	return scanPunches(rows)
}

// ListByDepartment implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListByDepartment(ctx context.Context, departmentID int, start, end time.Time) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM checkinout c
		JOIN userinfo u ON u.userid = c.userid
		WHERE u.dept_id = $1 AND c.check_time >= $2 AND c.check_time < $3
		ORDER BY c.userid, c.check_time, c.check_type
	`

	rows, err := q.Query(ctx, query, departmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches of department %d: %w", departmentID, err)
	}
	return scanPunches(rows)
}

// ListAll implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListAll(ctx context.Context, start, end time.Time) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM checkinout c
		WHERE c.check_time >= $1 AND c.check_time < $2
		ORDER BY c.userid, c.check_time, c.check_type
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	return scanPunches(rows)
}

// Create implements attendance.PunchRepository.
func (r *punchRepositoryImpl) Create(ctx context.Context, p attendance.Punch) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO checkinout (userid, check_time, check_type, sensor_id)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := q.Exec(ctx, query, p.EmployeeID, p.Time, int(p.Direction), p.SensorID); err != nil {
		return fmt.Errorf("failed to insert punch: %w", err)
	}
	return nil
}

// Delete implements attendance.PunchRepository.
func (r *punchRepositoryImpl) Delete(ctx context.Context, employeeID int64, at time.Time, direction attendance.Direction) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM checkinout WHERE userid = $1 AND date_trunc('second', check_time) = $2 AND check_type = $3`

	tag, err := q.Exec(ctx, query, employeeID, at, int(direction))
	if err != nil {
		return 0, fmt.Errorf("failed to delete punch: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateDirection implements attendance.PunchRepository.
func (r *punchRepositoryImpl) UpdateDirection(ctx context.Context, employeeID int64, at time.Time, direction attendance.Direction) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE checkinout SET check_type = $1 WHERE userid = $2 AND date_trunc('second', check_time) = $3`

	tag, err := q.Exec(ctx, query, int(direction), employeeID, at)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return 0, attendance.ErrConflictingMarks
		}
		return 0, fmt.Errorf("failed to update punch direction: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteDay implements attendance.PunchRepository.
func (r *punchRepositoryImpl) DeleteDay(ctx context.Context, employeeID int64, day time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	start := attendance.Day(day)
	query := `DELETE FROM checkinout WHERE userid = $1 AND check_time >= $2 AND check_time < $3`

	tag, err := q.Exec(ctx, query, employeeID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to delete punches of day: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPunches(rows pgx.Rows) ([]attendance.Punch, error) {
	defer rows.Close()

	var punches []attendance.Punch
	for rows.Next() {
		var (
			p         attendance.Punch
			checkType int
		)
		if err := rows.Scan(&p.EmployeeID, &p.Time, &checkType, &p.SensorID); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		p.Direction = attendance.Direction(checkType)
		p.Time = wallClock(p.Time)
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punches: %w", err)
	}
	return punches, nil
}

// wallClock keeps the stored wall clock at second precision, which is how
// punches are addressed by the mutation queries.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
