package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"golang.org/x/sync/errgroup"
)

// Scope is a resolved department selection within one data source. All
// selects every department of the source.
type Scope struct {
	Source        datasource.Source
	All           bool
	DepartmentIDs []int
}

// Loader reads punches, shifts and employees from a store and assembles
// reconciled day records.
type Loader struct {
	reconciler *Reconciler
}

func NewLoader(reconciler *Reconciler) *Loader {
	return &Loader{reconciler: reconciler}
}

func (l *Loader) Reconciler() *Reconciler {
	return l.reconciler
}

// Range builds a record for every employee in scope and every date in
// [start, end], ordered by employee then date.
func (l *Loader) Range(ctx context.Context, store datasource.Store, scope Scope, start, end time.Time) ([]attendance.DayRecord, error) {
	if !scope.All && len(scope.DepartmentIDs) == 0 {
		return nil, nil
	}

	start, end = attendance.Day(start), attendance.Day(end)
	until := end.AddDate(0, 0, 1)

	var (
		employees   []employee.Employee
		assignments []schedule.Assignment
		punches     []attendance.Punch
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if scope.All {
			rows, err := store.Employees.ListAll(gctx)
			if err != nil {
				return fmt.Errorf("failed to list employees: %w", err)
			}
			employees = rows
			return nil
		}
		for _, id := range scope.DepartmentIDs {
			rows, err := store.Employees.ListByDepartment(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to list employees of department %d: %w", id, err)
			}
			employees = append(employees, rows...)
		}
		return nil
	})
	g.Go(func() error {
		if scope.All {
			rows, err := store.Assignments.ListAll(gctx, start, end)
			if err != nil {
				return fmt.Errorf("failed to list shift assignments: %w", err)
			}
			assignments = rows
			return nil
		}
		for _, id := range scope.DepartmentIDs {
			rows, err := store.Assignments.ListByDepartment(gctx, id, start, end)
			if err != nil {
				return fmt.Errorf("failed to list shift assignments of department %d: %w", id, err)
			}
			assignments = append(assignments, rows...)
		}
		return nil
	})
	g.Go(func() error {
		if scope.All {
			rows, err := store.Punches.ListAll(gctx, start, until)
			if err != nil {
				return fmt.Errorf("failed to list punches: %w", err)
			}
			punches = rows
			return nil
		}
		for _, id := range scope.DepartmentIDs {
			rows, err := store.Punches.ListByDepartment(gctx, id, start, until)
			if err != nil {
				return fmt.Errorf("failed to list punches of department %d: %w", id, err)
			}
			punches = append(punches, rows...)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dates := DatesBetween(start, end)
	shifts := ExpandByEmployee(assignments, dates)
	grouped := groupPunches(punches)

	records := make([]attendance.DayRecord, 0, len(employees)*len(dates))
	for _, emp := range employees {
		for _, date := range dates {
			key := date.Format(attendance.DateLayout)
			rec := l.assemble(emp, scope.Source, date, shifts[emp.ID][key], grouped[punchKey{emp.ID, key}])
			records = append(records, rec)
		}
	}
	return records, nil
}

// Day recomputes a single employee-day straight from the store.
func (l *Loader) Day(ctx context.Context, store datasource.Store, src datasource.Source, emp employee.Employee, day time.Time) (attendance.DayRecord, error) {
	day = attendance.Day(day)

	assignments, err := store.Assignments.ListByEmployee(ctx, emp.ID, day, day)
	if err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to list shift assignments: %w", err)
	}
	punches, err := store.Punches.ListByEmployee(ctx, emp.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to list punches: %w", err)
	}

	key := day.Format(attendance.DateLayout)
	shifts := ExpandShifts(assignments, []time.Time{day})
	return l.assemble(emp, src, day, shifts[key], punches), nil
}

func (l *Loader) assemble(emp employee.Employee, src datasource.Source, date time.Time, shifts []schedule.Window, punches []attendance.Punch) attendance.DayRecord {
	rec := attendance.DayRecord{
		EmployeeID:   emp.ID,
		Name:         emp.Name,
		Code:         emp.Code,
		DepartmentID: emp.DepartmentID,
		DataSource:   string(src),
		Date:         date,
		Shifts:       shifts,
		Entries:      []attendance.Punch{},
		Exits:        []attendance.Punch{},
	}
	if src == datasource.Alternate {
		rec.DepartmentID = datasource.AlternateDepartmentID
	}
	for _, p := range punches {
		if p.Direction == attendance.DirectionExit {
			rec.Exits = append(rec.Exits, p)
		} else {
			rec.Entries = append(rec.Entries, p)
		}
	}
	l.reconciler.Reconcile(&rec)
	return rec
}

type punchKey struct {
	employeeID int64
	date       string
}

func groupPunches(punches []attendance.Punch) map[punchKey][]attendance.Punch {
	out := make(map[punchKey][]attendance.Punch)
	for _, p := range punches {
		k := punchKey{p.EmployeeID, p.Date()}
		out[k] = append(out[k], p)
	}
	return out
}
