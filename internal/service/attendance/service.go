package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
)

type AttendanceServiceImpl struct {
	registry      *datasource.Registry
	loader        *Loader
	alternateName string
	now           func() time.Time
}

func NewAttendanceService(registry *datasource.Registry, loader *Loader, alternateName string) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		registry:      registry,
		loader:        loader,
		alternateName: alternateName,
		now:           time.Now,
	}
}

func (s *AttendanceServiceImpl) records(ctx context.Context, filter *attendance.AttendanceFilter) ([]attendance.DayRecord, time.Time, time.Time, error) {
	return LoadRecords(ctx, s.registry, s.loader, filter, s.now())
}

// LoadRecords validates the filter, resolves the caller's scope and loads
// every matching day of the range ending at today.
func LoadRecords(ctx context.Context, registry *datasource.Registry, loader *Loader, filter *attendance.AttendanceFilter, today time.Time) ([]attendance.DayRecord, time.Time, time.Time, error) {
	if err := filter.Validate(); err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	p, err := user.PrincipalFromContext(ctx)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	scope, err := ResolveScope(p, registry, filter.DepartmentID)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	store, err := registry.Get(scope.Source)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	start, end := filter.Range(today)
	all, err := loader.Range(ctx, store, scope, start, end)
	if err != nil {
		return nil, start, end, err
	}

	records := make([]attendance.DayRecord, 0, len(all))
	for _, rec := range all {
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	return records, start, end, nil
}

// GetAttendanceData implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendanceData(ctx context.Context, filter attendance.AttendanceFilter) (attendance.AttendanceDataResponse, error) {
	records, start, end, err := s.records(ctx, &filter)
	if err != nil {
		return attendance.AttendanceDataResponse{}, err
	}

	resp := attendance.AttendanceDataResponse{
		StartDate: start.Format(attendance.DateLayout),
		EndDate:   end.Format(attendance.DateLayout),
		Records:   make([]attendance.DayRecordResponse, 0, len(records)),
		Summary:   attendance.Summarize(records),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, attendance.NewDayRecordResponse(rec))
	}
	return resp, nil
}

// ListDayRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDayRecords(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.DayRecord, error) {
	records, _, _, err := s.records(ctx, &filter)
	return records, err
}

// GetUserDayDetail implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetUserDayDetail(ctx context.Context, req attendance.DayRequest) (attendance.DayRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayRecordResponse{}, err
	}

	target, err := AuthorizeDay(ctx, s.registry, req)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	rec, err := s.loader.Day(ctx, target.Store, target.Source, target.Employee, req.Day())
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	return attendance.NewDayRecordResponse(rec), nil
}

// ListIncompleteDays implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListIncompleteDays(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListIncompleteDaysResponse, error) {
	records, start, end, err := s.records(ctx, &filter)
	if err != nil {
		return attendance.ListIncompleteDaysResponse{}, err
	}

	resp := attendance.ListIncompleteDaysResponse{
		StartDate: start.Format(attendance.DateLayout),
		EndDate:   end.Format(attendance.DateLayout),
		Days:      []attendance.IncompleteDayResponse{},
	}
	for _, rec := range records {
		if len(rec.Shifts) == 0 || rec.Resolved {
			continue
		}
		resp.Days = append(resp.Days, attendance.IncompleteDayResponse{
			DayRecordResponse: attendance.NewDayRecordResponse(rec),
			PunchCount:        rec.PunchCount(),
			AutoFixable:       IsAutoFixable(rec),
		})
	}
	return resp, nil
}

// ListDepartments implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDepartments(ctx context.Context) ([]employee.Department, error) {
	p, err := user.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}

	store, err := s.registry.Get(datasource.Primary)
	if err != nil {
		return nil, err
	}

	var departments []employee.Department
	if p.IsAdmin() {
		departments, err = store.Employees.ListDepartments(ctx)
	} else {
		ids := slices.DeleteFunc(slices.Clone(p.DepartmentIDs), func(id int) bool {
			return id == datasource.AlternateDepartmentID
		})
		if len(ids) > 0 {
			departments, err = store.Employees.ListDepartmentsByIDs(ctx, ids)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	if s.registry.HasAlternate() && p.CanAccessDepartment(datasource.AlternateDepartmentID) {
		departments = append(departments, employee.Department{
			ID:   datasource.AlternateDepartmentID,
			Name: s.alternateName,
		})
	}

	slog.Debug("listed departments", "username", p.Username, "count", len(departments))
	if departments == nil {
		departments = []employee.Department{}
	}
	return departments, nil
}
