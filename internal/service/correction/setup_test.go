package correction_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database/migrations"
	"github.com/cmlabs-hris/attendance-control/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/attendance-control/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/service/correction"
	"github.com/stretchr/testify/require"
)

const testDate = "2025-05-05" // Monday

var monday = time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db      *database.SQLiteDB
	store   datasource.Store
	service attendance.CorrectionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.MigrateUp(db.DB))

	seed := []string{
		`INSERT INTO dept (dept_id, dept_name) VALUES (3, 'Operations'), (4, 'Finance')`,
		`INSERT INTO userinfo (userid, name, user_code, dept_id) VALUES (7, 'Ana', 'A7', 3), (8, 'Bruno', 'B8', 4)`,
		`INSERT INTO schedule (sch_id, sch_name) VALUES (1, 'Office')`,
		`INSERT INTO time_table (time_id, time_name, in_time, out_time) VALUES (10, 'Office', '08:00:00', '17:00:00')`,
		`INSERT INTO sch_time (sch_id, begin_day, time_id) VALUES (1, 1, 10)`,
		`INSERT INTO user_shift (userid, sch_id, begin_date, end_date) VALUES (7, 1, '2025-01-01', '2025-12-31'), (8, 1, '2025-01-01', '2025-12-31')`,
	}
	for _, s := range seed {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}

	store := datasource.Store{
		Punches:     sqlite.NewPunchRepository(db),
		Assignments: sqlite.NewAssignmentRepository(db),
		Employees:   sqlite.NewEmployeeRepository(db),
		Tx:          sqlite.NewTransactor(db),
	}
	return &fixture{db: db, store: store, service: newService(store)}
}

func newService(store datasource.Store) attendance.CorrectionService {
	loader := attendanceService.NewLoader(attendanceService.NewReconciler(attendanceService.DefaultRules()))
	return correction.NewCorrectionService(datasource.NewRegistry(store), loader)
}

// punch stores a sensor punch at hh:mm on the test Monday.
func (f *fixture) punch(t *testing.T, employeeID int64, hhmm string, dir attendance.Direction) {
	t.Helper()
	at, err := time.Parse("15:04", hhmm)
	require.NoError(t, err)
	p := attendance.Punch{
		EmployeeID: employeeID,
		Time:       monday.Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute),
		Direction:  dir,
		SensorID:   9,
	}
	require.NoError(t, f.store.Punches.Create(context.Background(), p))
}

func (f *fixture) day(t *testing.T, employeeID int64) []attendance.Punch {
	t.Helper()
	got, err := f.store.Punches.ListByEmployee(context.Background(), employeeID, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	return got
}

func clock(ps []attendance.Punch, dir attendance.Direction) []string {
	out := []string{}
	for _, p := range ps {
		if p.Direction == dir {
			out = append(out, p.Time.Format("15:04"))
		}
	}
	return out
}

func asAdmin() context.Context {
	return user.WithPrincipal(context.Background(), user.Principal{UserID: 1, Username: "admin", Role: user.RoleAdmin})
}

func asOperator(departments ...int) context.Context {
	return user.WithPrincipal(context.Background(), user.Principal{UserID: 2, Username: "lucia", Role: user.RoleUser, DepartmentIDs: departments})
}

func dayRequest(employeeID int64) attendance.DayRequest {
	return attendance.DayRequest{EmployeeID: employeeID, Date: testDate}
}

func markRequest(employeeID int64, hhmm, dir string) attendance.MarkRequest {
	return attendance.MarkRequest{DayRequest: dayRequest(employeeID), Time: hhmm, Direction: dir}
}
