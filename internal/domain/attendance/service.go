package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
)

// AttendanceService defines the read side of attendance reconciliation
type AttendanceService interface {
	// GetAttendanceData reconciles every employee-day in scope
	GetAttendanceData(ctx context.Context, filter AttendanceFilter) (AttendanceDataResponse, error)

	// GetUserDayDetail recomputes a single employee-day from the store
	GetUserDayDetail(ctx context.Context, req DayRequest) (DayRecordResponse, error)

	// ListIncompleteDays returns unresolved days that have shifts assigned
	ListIncompleteDays(ctx context.Context, filter AttendanceFilter) (ListIncompleteDaysResponse, error)

	// ListDayRecords is GetAttendanceData without response shaping, used by exports
	ListDayRecords(ctx context.Context, filter AttendanceFilter) ([]DayRecord, error)

	// ListDepartments returns the departments visible to the caller
	ListDepartments(ctx context.Context) ([]employee.Department, error)
}

// CorrectionService defines the write side: manual edits and automated repairs
type CorrectionService interface {
	AddMark(ctx context.Context, req AddMarkRequest) (MarkResponse, error)
	DeleteMark(ctx context.Context, req DeleteMarkRequest) error
	ReassignMark(ctx context.Context, req ReassignMarkRequest) error

	// ReplaceDayMarks atomically swaps the full mark set of a day
	ReplaceDayMarks(ctx context.Context, req SaveMarksRequest) (DayRecordResponse, error)

	// AutoFixIncompleteDay inserts default marks from the day's shifts
	AutoFixIncompleteDay(ctx context.Context, req DayRequest) (AutoFixResponse, error)

	// ApplyResolution persists the resolver output for one day
	ApplyResolution(ctx context.Context, req DayRequest) (DayCleanResult, error)

	// CleanDuplicates resolves every day in scope, one transaction per day
	CleanDuplicates(ctx context.Context, req CleanDuplicatesRequest) (CleanDuplicatesResponse, error)
}
