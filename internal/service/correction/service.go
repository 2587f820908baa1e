package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	attendanceService "github.com/cmlabs-hris/attendance-control/internal/service/attendance"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the per-day transactions of a bulk cleanup.
const DefaultWorkers = 4

type CorrectionServiceImpl struct {
	registry *datasource.Registry
	loader   *attendanceService.Loader
	resolver *attendanceService.Resolver
	now      func() time.Time
}

func NewCorrectionService(registry *datasource.Registry, loader *attendanceService.Loader) attendance.CorrectionService {
	return &CorrectionServiceImpl{
		registry: registry,
		loader:   loader,
		resolver: loader.Reconciler().Resolver(),
		now:      time.Now,
	}
}

// manualSensor tags operator-entered punches by role.
func manualSensor(p user.Principal) int {
	if p.IsAdmin() {
		return attendance.SensorAdminManual
	}
	return attendance.SensorNonAdminManual
}

// AddMark implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) AddMark(ctx context.Context, req attendance.AddMarkRequest) (attendance.MarkResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MarkResponse{}, err
	}

	target, err := attendanceService.AuthorizeDay(ctx, s.registry, req.DayRequest)
	if err != nil {
		return attendance.MarkResponse{}, err
	}

	p := attendance.Punch{
		EmployeeID: target.Employee.ID,
		Time:       req.At(),
		Direction:  req.Dir(),
		SensorID:   manualSensor(target.Principal),
	}
	if err := s.addMark(ctx, target.Store, p); err != nil {
		return attendance.MarkResponse{}, err
	}

	slog.Info("mark added",
		"user_id", p.EmployeeID,
		"time", p.Time.Format(time.DateTime),
		"type", p.Direction.String(),
		"by", target.Principal.Username,
	)
	return attendance.NewMarkResponse(p), nil
}

// addMark rejects a punch that falls within the tolerance of another punch
// of the same direction on the same day, then inserts it.
func (s *CorrectionServiceImpl) addMark(ctx context.Context, store datasource.Store, p attendance.Punch) error {
	day := attendance.Day(p.Time)
	existing, err := store.Punches.ListByEmployee(ctx, p.EmployeeID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to list punches: %w", err)
	}

	tolerance := s.loader.Reconciler().Rules().Tolerance
	for _, e := range existing {
		if e.Time.Equal(p.Time) && e.Direction == p.Direction.Opposite() {
			return attendance.ErrConflictingMarks
		}
		if e.Direction != p.Direction {
			continue
		}
		if gap := e.Time.Sub(p.Time).Abs(); gap < tolerance {
			return attendance.ErrDuplicateMark
		}
	}

	if err := store.Punches.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to add mark: %w", err)
	}
	return nil
}

// DeleteMark implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) DeleteMark(ctx context.Context, req attendance.DeleteMarkRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	target, err := attendanceService.AuthorizeDay(ctx, s.registry, req.DayRequest)
	if err != nil {
		return err
	}

	n, err := target.Store.Punches.Delete(ctx, target.Employee.ID, req.At(), req.Dir())
	if err != nil {
		return fmt.Errorf("failed to delete mark: %w", err)
	}
	if n == 0 {
		return attendance.ErrMarkNotFound
	}

	slog.Info("mark deleted",
		"user_id", target.Employee.ID,
		"time", req.At().Format(time.DateTime),
		"type", req.Dir().String(),
		"by", target.Principal.Username,
	)
	return nil
}

// ReassignMark implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) ReassignMark(ctx context.Context, req attendance.ReassignMarkRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	target, err := attendanceService.AuthorizeDay(ctx, s.registry, req.DayRequest)
	if err != nil {
		return err
	}

	day := req.Day()
	existing, err := target.Store.Punches.ListByEmployee(ctx, target.Employee.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to list punches: %w", err)
	}
	at := make(map[attendance.Direction]bool, 2)
	for _, p := range existing {
		if p.Time.Equal(req.At()) {
			at[p.Direction] = true
		}
	}
	if at[req.Dir()] && at[req.Dir().Opposite()] {
		return attendance.ErrConflictingMarks
	}

	n, err := target.Store.Punches.UpdateDirection(ctx, target.Employee.ID, req.At(), req.Dir())
	if err != nil {
		return fmt.Errorf("failed to reassign mark: %w", err)
	}
	if n == 0 {
		return attendance.ErrMarkNotFound
	}

	slog.Info("mark reassigned",
		"user_id", target.Employee.ID,
		"time", req.At().Format(time.DateTime),
		"type", req.Dir().String(),
		"by", target.Principal.Username,
	)
	return nil
}

// ReplaceDayMarks implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) ReplaceDayMarks(ctx context.Context, req attendance.SaveMarksRequest) (attendance.DayRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayRecordResponse{}, err
	}

	target, err := attendanceService.AuthorizeDay(ctx, s.registry, req.DayRequest)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	store := target.Store
	day := req.Day()
	incoming := req.Punches(manualSensor(target.Principal))

	err = store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := store.Punches.ListByEmployee(ctx, target.Employee.ID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("failed to list punches: %w", err)
		}
		sensors := make(map[markKey]int, len(existing))
		for _, p := range existing {
			sensors[keyOf(p)] = p.SensorID
		}

		if _, err := store.Punches.DeleteDay(ctx, target.Employee.ID, day); err != nil {
			return fmt.Errorf("failed to clear day: %w", err)
		}
		for _, p := range incoming {
			if sensor, ok := sensors[keyOf(p)]; ok {
				p.SensorID = sensor
			}
			if err := store.Punches.Create(ctx, p); err != nil {
				return fmt.Errorf("failed to save mark %s: %w", p.Time.Format(time.TimeOnly), err)
			}
		}
		return nil
	})
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	slog.Info("day marks replaced",
		"user_id", target.Employee.ID,
		"date", req.Date,
		"entries", len(req.Entries),
		"exits", len(req.Exits),
		"by", target.Principal.Username,
	)

	rec, err := s.loader.Day(ctx, store, target.Source, target.Employee, day)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	return attendance.NewDayRecordResponse(rec), nil
}

type markKey struct {
	at        time.Time
	direction attendance.Direction
}

func keyOf(p attendance.Punch) markKey {
	return markKey{p.Time, p.Direction}
}

// AutoFixIncompleteDay implements attendance.CorrectionService. Marks are
// inserted one by one; a failed mark does not undo the others.
func (s *CorrectionServiceImpl) AutoFixIncompleteDay(ctx context.Context, req attendance.DayRequest) (attendance.AutoFixResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AutoFixResponse{}, err
	}

	target, err := attendanceService.AuthorizeDay(ctx, s.registry, req)
	if err != nil {
		return attendance.AutoFixResponse{}, err
	}

	rec, err := s.loader.Day(ctx, target.Store, target.Source, target.Employee, req.Day())
	if err != nil {
		return attendance.AutoFixResponse{}, err
	}
	if rec.Resolved {
		return attendance.AutoFixResponse{}, attendance.ErrNotAutoFixable
	}

	plan, err := attendanceService.PlanAutoFix(rec)
	if err != nil {
		return attendance.AutoFixResponse{}, err
	}

	sensor := manualSensor(target.Principal)
	results := make([]attendance.MarkResult, 0, len(plan))
	for _, p := range plan {
		p.SensorID = sensor
		result := attendance.MarkResult{
			Time:      p.Time.Format(time.TimeOnly),
			Direction: p.Direction,
			Success:   true,
		}
		if err := s.addMark(ctx, target.Store, p); err != nil {
			slog.Error("auto-fix mark failed", "user_id", p.EmployeeID, "time", p.Time.Format(time.DateTime), "error", err)
			result.Success = false
			result.Message = failureMessage(err, "failed to save mark")
		}
		results = append(results, result)
	}

	slog.Info("incomplete day auto-fixed",
		"user_id", target.Employee.ID,
		"date", req.Date,
		"marks", len(plan),
		"by", target.Principal.Username,
	)

	fixed, err := s.loader.Day(ctx, target.Store, target.Source, target.Employee, req.Day())
	if err != nil {
		return attendance.AutoFixResponse{}, err
	}
	return attendance.AutoFixResponse{
		EmployeeID: target.Employee.ID,
		Date:       req.Date,
		Results:    results,
		Day:        attendance.NewDayRecordResponse(fixed),
	}, nil
}

// ApplyResolution implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) ApplyResolution(ctx context.Context, req attendance.DayRequest) (attendance.DayCleanResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayCleanResult{}, err
	}

	target, err := attendanceService.AuthorizeDay(ctx, s.registry, req)
	if err != nil {
		return attendance.DayCleanResult{}, err
	}

	result, err := s.resolveDay(ctx, target.Store, target.Source, target.Employee, req.Day(), false)
	if err != nil {
		return attendance.DayCleanResult{}, err
	}
	if result.Applied {
		slog.Info("day resolution applied",
			"user_id", target.Employee.ID,
			"date", req.Date,
			"transitions", len(result.Transitions),
			"by", target.Principal.Username,
		)
	}
	return result, nil
}

// resolveDay re-reads a day inside one transaction, runs the resolver and
// persists its transitions unless dryRun is set.
func (s *CorrectionServiceImpl) resolveDay(ctx context.Context, store datasource.Store, src datasource.Source, emp employee.Employee, day time.Time, dryRun bool) (attendance.DayCleanResult, error) {
	result := attendance.DayCleanResult{
		EmployeeID:  emp.ID,
		Date:        day.Format(attendance.DateLayout),
		DataSource:  string(src),
		Transitions: []attendance.TransitionResponse{},
	}

	err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.loader.Day(ctx, store, src, emp, day)
		if err != nil {
			return err
		}

		res := s.resolver.Resolve(rec.Entries, rec.Exits)
		result.Changed = res.Changed
		for _, t := range res.Transitions {
			result.Transitions = append(result.Transitions, attendance.NewTransitionResponse(t))
		}
		if !res.Changed || dryRun {
			return nil
		}

		return applyTransitions(ctx, store.Punches, emp.ID, res.Transitions)
	})
	if err != nil {
		return result, err
	}

	result.Applied = result.Changed && !dryRun
	return result, nil
}

// applyTransitions deletes dropped punches before re-tagging the rest, so a
// re-tag never collides with a copy that is about to go.
func applyTransitions(ctx context.Context, punches attendance.PunchRepository, employeeID int64, transitions []attendance.Transition) error {
	for _, t := range transitions {
		if !t.Dropped {
			continue
		}
		n, err := punches.Delete(ctx, employeeID, t.Time, t.From)
		if err != nil {
			return fmt.Errorf("failed to drop mark: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("drop %s: %w", t.Time.Format(time.DateTime), attendance.ErrMarkNotFound)
		}
	}
	for _, t := range transitions {
		if t.Dropped {
			continue
		}
		n, err := punches.UpdateDirection(ctx, employeeID, t.Time, t.To)
		if err != nil {
			return fmt.Errorf("failed to reassign mark: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("reassign %s: %w", t.Time.Format(time.DateTime), attendance.ErrMarkNotFound)
		}
	}
	return nil
}

// CleanDuplicates implements attendance.CorrectionService. Each changed day
// runs in its own transaction; one failing day does not stop the others.
func (s *CorrectionServiceImpl) CleanDuplicates(ctx context.Context, req attendance.CleanDuplicatesRequest) (attendance.CleanDuplicatesResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CleanDuplicatesResponse{}, err
	}

	p, err := user.PrincipalFromContext(ctx)
	if err != nil {
		return attendance.CleanDuplicatesResponse{}, err
	}
	if !user.HasPermission(p.Role, user.PermissionAttendanceClean) {
		return attendance.CleanDuplicatesResponse{}, user.ErrAdminPrivilegeRequired
	}

	records, start, end, err := attendanceService.LoadRecords(ctx, s.registry, s.loader, &req.AttendanceFilter, s.now())
	if err != nil {
		return attendance.CleanDuplicatesResponse{}, err
	}

	resp := attendance.CleanDuplicatesResponse{
		RunID:       uuid.NewString(),
		DryRun:      req.DryRun,
		StartDate:   start.Format(attendance.DateLayout),
		EndDate:     end.Format(attendance.DateLayout),
		DaysScanned: len(records),
		Results:     []attendance.DayCleanResult{},
	}
	log := slog.With("run_id", resp.RunID, "dry_run", req.DryRun)

	var changed []attendance.DayRecord
	for _, rec := range records {
		if s.resolver.Resolve(rec.Entries, rec.Exits).Changed {
			changed = append(changed, rec)
		}
	}
	log.Info("clean duplicates started", "days_scanned", len(records), "days_changed", len(changed), "by", p.Username)

	workers := req.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}

	results := make([]attendance.DayCleanResult, len(changed))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, rec := range changed {
		g.Go(func() error {
			src := datasource.Source(rec.DataSource)
			emp := employee.Employee{
				ID:           rec.EmployeeID,
				Name:         rec.Name,
				Code:         rec.Code,
				DepartmentID: rec.DepartmentID,
			}

			result, err := s.cleanDay(ctx, src, emp, rec.Date, req.DryRun)
			if err != nil {
				log.Error("failed to clean day", "user_id", rec.EmployeeID, "date", rec.DateString(), "error", err)
				results[i] = failedDay(rec, err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Error != "" {
			resp.DaysFailed++
			continue
		}
		if r.Changed {
			resp.DaysChanged++
		}
	}
	resp.Results = append(resp.Results, results...)

	log.Info("clean duplicates finished",
		"days_changed", resp.DaysChanged,
		"days_failed", resp.DaysFailed,
	)
	return resp, nil
}

func (s *CorrectionServiceImpl) cleanDay(ctx context.Context, src datasource.Source, emp employee.Employee, day time.Time, dryRun bool) (attendance.DayCleanResult, error) {
	if err := ctx.Err(); err != nil {
		return attendance.DayCleanResult{}, err
	}
	store, err := s.registry.Get(src)
	if err != nil {
		return attendance.DayCleanResult{}, err
	}
	return s.resolveDay(ctx, store, src, emp, day, dryRun)
}

func failedDay(rec attendance.DayRecord, err error) attendance.DayCleanResult {
	return attendance.DayCleanResult{
		EmployeeID:  rec.EmployeeID,
		Date:        rec.DateString(),
		DataSource:  rec.DataSource,
		Changed:     true,
		Transitions: []attendance.TransitionResponse{},
		Error:       failureMessage(err, "failed to clean day"),
	}
}

// reportedErrors may be echoed back to the caller as is. Anything else is
// logged and replaced by a fixed message.
var reportedErrors = []error{
	attendance.ErrDuplicateMark,
	attendance.ErrConflictingMarks,
	attendance.ErrMarkNotFound,
	datasource.ErrSourceNotConfigured,
	context.Canceled,
	context.DeadlineExceeded,
}

func failureMessage(err error, fallback string) string {
	for _, known := range reportedErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return fallback
}
