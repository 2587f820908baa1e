package attendance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/validator"
)

// ========================================
// QUERY DTOs
// ========================================

const (
	DefaultRangeDays = 7
	MaxRangeDays     = 366
)

var validDataSources = []string{"primary", "alternate"}

// AttendanceFilter selects the employee-days of a read or bulk operation.
type AttendanceFilter struct {
	// DepartmentID 0 selects every department visible to the caller; the
	// alternate tenant uses its sentinel id.
	DepartmentID int     `json:"dept_id"`
	Days         int     `json:"days"`
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Search       string  `json:"search,omitempty"`
	Status       string  `json:"status,omitempty"`
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Days < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "days",
			Message: "days must be a positive number",
		})
	}
	if f.Days == 0 {
		f.Days = DefaultRangeDays
	}
	if f.Days > MaxRangeDays {
		errs = append(errs, validator.ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("days must not exceed %d", MaxRangeDays),
		})
	}

	var start, end time.Time
	if f.StartDate != nil && *f.StartDate != "" {
		t, valid := validator.IsValidDate(*f.StartDate)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
		start = t
	}
	if f.EndDate != nil && *f.EndDate != "" {
		t, valid := validator.IsValidDate(*f.EndDate)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() {
		if start.After(end) {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must not be after end_date",
			})
		} else if int(end.Sub(start).Hours()/24) >= MaxRangeDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: fmt.Sprintf("date range must not exceed %d days", MaxRangeDays),
			})
		}
	}

	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status != "" {
		validStatuses := []string{string(StatusNormal), string(StatusWarning), string(StatusAbsent)}
		if !validator.IsInSlice(f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: normal, warning, absent",
			})
		}
	}
	f.Search = strings.TrimSpace(f.Search)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Range resolves the inclusive date range of a validated filter. A single
// bound selects that one day; no bound selects the last Days days ending on
// today.
func (f AttendanceFilter) Range(today time.Time) (time.Time, time.Time) {
	var start, end time.Time
	if f.StartDate != nil && *f.StartDate != "" {
		start, _ = validator.IsValidDate(*f.StartDate)
	}
	if f.EndDate != nil && *f.EndDate != "" {
		end, _ = validator.IsValidDate(*f.EndDate)
	}

	switch {
	case !start.IsZero() && !end.IsZero():
		return start, end
	case !start.IsZero():
		return start, start
	case !end.IsZero():
		return end, end
	}

	days := f.Days
	if days <= 0 {
		days = DefaultRangeDays
	}
	end = Day(today)
	return end.AddDate(0, 0, -(days - 1)), end
}

// Matches applies the search and status filters to a record.
func (f AttendanceFilter) Matches(r DayRecord) bool {
	if f.Status != "" && string(r.Status) != f.Status {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.Code), q) {
			return false
		}
	}
	return true
}

// Day truncates t to its calendar date in UTC, the location every stored
// wall-clock time is read into.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRequest addresses one employee-day.
type DayRequest struct {
	EmployeeID int64  `json:"user_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	DataSource string `json:"data_source,omitempty"`
}

func (r *DayRequest) Validate() error {
	errs := r.validate()
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *DayRequest) validate() validator.ValidationErrors {
	var errs validator.ValidationErrors

	if r.EmployeeID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	r.DataSource = strings.ToLower(strings.TrimSpace(r.DataSource))
	if r.DataSource == "" {
		r.DataSource = validDataSources[0]
	}
	if !validator.IsInSlice(r.DataSource, validDataSources) {
		errs = append(errs, validator.ValidationError{
			Field:   "data_source",
			Message: "data_source must be one of: primary, alternate",
		})
	}

	return errs
}

// Day returns the parsed date of a validated request.
func (r DayRequest) Day() time.Time {
	t, _ := validator.IsValidDate(r.Date)
	return t
}

// ========================================
// COMMAND DTOs
// ========================================

// Command is one of the closed set of correction commands accepted by the
// command endpoint.
type Command interface {
	Validate() error
	command()
}

// MarkRequest adds or deletes a single punch.
type MarkRequest struct {
	DayRequest
	Time      string `json:"time"` // HH:MM or HH:MM:SS
	Direction string `json:"type"` // entry, exit
}

func (r *MarkRequest) Validate() error {
	errs := r.DayRequest.validate()

	if validator.IsEmpty(r.Time) {
		errs = append(errs, validator.ValidationError{
			Field:   "time",
			Message: "time is required",
		})
	} else if !validator.IsValidTimeOfDay(r.Time) {
		errs = append(errs, validator.ValidationError{
			Field:   "time",
			Message: "time must be in HH:MM or HH:MM:SS format",
		})
	}

	if _, err := ParseDirection(r.Direction); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: entry, exit",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// At returns the punch timestamp of a validated request.
func (r MarkRequest) At() time.Time {
	return schedule.MustParseTimeOfDay(r.Time).On(r.Day())
}

// Dir returns the direction of a validated request.
func (r MarkRequest) Dir() Direction {
	d, _ := ParseDirection(r.Direction)
	return d
}

type AddMarkRequest struct{ MarkRequest }

type DeleteMarkRequest struct{ MarkRequest }

type ReassignMarkRequest struct {
	DayRequest
	Time         string `json:"time"`
	NewDirection string `json:"new_type"`
}

func (r *ReassignMarkRequest) Validate() error {
	errs := r.DayRequest.validate()

	if !validator.IsValidTimeOfDay(r.Time) {
		errs = append(errs, validator.ValidationError{
			Field:   "time",
			Message: "time must be in HH:MM or HH:MM:SS format",
		})
	}
	if _, err := ParseDirection(r.NewDirection); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "new_type",
			Message: "new_type must be one of: entry, exit",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r ReassignMarkRequest) At() time.Time {
	return schedule.MustParseTimeOfDay(r.Time).On(r.Day())
}

func (r ReassignMarkRequest) Dir() Direction {
	d, _ := ParseDirection(r.NewDirection)
	return d
}

// SaveMarksRequest replaces the full mark set of a day.
type SaveMarksRequest struct {
	DayRequest
	Entries []string `json:"entries"`
	Exits   []string `json:"exits"`
}

func (r *SaveMarksRequest) Validate() error {
	errs := r.DayRequest.validate()

	seen := make(map[string]string)
	check := func(field string, values []string) {
		for i, v := range values {
			if !validator.IsValidTimeOfDay(v) {
				errs = append(errs, validator.ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Message: "time must be in HH:MM or HH:MM:SS format",
				})
				continue
			}
			key := schedule.MustParseTimeOfDay(v).String()
			if other, ok := seen[key]; ok && other != field {
				errs = append(errs, validator.ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Message: ErrConflictingMarks.Error(),
				})
			}
			seen[key] = field
		}
	}
	check("entries", r.Entries)
	check("exits", r.Exits)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Punches converts a validated request into punches on the request day. Each
// punch carries the given sensor id.
func (r SaveMarksRequest) Punches(sensorID int) []Punch {
	day := r.Day()
	punches := make([]Punch, 0, len(r.Entries)+len(r.Exits))
	add := func(values []string, dir Direction) {
		seen := make(map[time.Time]bool)
		for _, v := range values {
			at := schedule.MustParseTimeOfDay(v).On(day)
			if seen[at] {
				continue
			}
			seen[at] = true
			punches = append(punches, Punch{EmployeeID: r.EmployeeID, Time: at, Direction: dir, SensorID: sensorID})
		}
	}
	add(r.Entries, DirectionEntry)
	add(r.Exits, DirectionExit)
	SortPunches(punches)
	return punches
}

type CleanDuplicatesRequest struct {
	AttendanceFilter
	DryRun  bool `json:"dry_run"`
	Workers int  `json:"workers"`
}

func (r *CleanDuplicatesRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := r.AttendanceFilter.Validate(); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		}
	}
	if r.Workers < 0 || r.Workers > 64 {
		errs = append(errs, validator.ValidationError{
			Field:   "workers",
			Message: "workers must be between 0 and 64",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (*AddMarkRequest) command()      {}
func (*DeleteMarkRequest) command()   {}
func (*ReassignMarkRequest) command() {}
func (*SaveMarksRequest) command()    {}

// Command actions accepted by DecodeCommand.
const (
	ActionSaveMarks    = "save_marks"
	ActionAddMark      = "add_mark"
	ActionDeleteMark   = "delete_mark"
	ActionReassignMark = "reassign_mark"
)

// CommandEnvelope is the wire form of a command.
type CommandEnvelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeCommand turns an envelope into its typed command. Unknown actions
// fail with ErrUnknownCommand.
func DecodeCommand(env CommandEnvelope) (Command, error) {
	var cmd Command
	switch env.Action {
	case ActionSaveMarks:
		cmd = &SaveMarksRequest{}
	case ActionAddMark:
		cmd = &AddMarkRequest{}
	case ActionDeleteMark:
		cmd = &DeleteMarkRequest{}
	case ActionReassignMark:
		cmd = &ReassignMarkRequest{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Action)
	}

	if len(env.Payload) == 0 {
		return nil, validator.ValidationErrors{{Field: "payload", Message: "payload is required"}}
	}
	if err := json.Unmarshal(env.Payload, cmd); err != nil {
		return nil, validator.ValidationErrors{{Field: "payload", Message: "payload is not valid for " + env.Action}}
	}
	return cmd, nil
}

// ========================================
// RESPONSE DTOs
// ========================================

type MarkResponse struct {
	Time      string    `json:"time"` // HH:MM:SS
	Direction Direction `json:"type"`
	Source    SourceTag `json:"source"`
}

func NewMarkResponse(p Punch) MarkResponse {
	return MarkResponse{
		Time:      schedule.TimeOfDayOf(p.Time).String(),
		Direction: p.Direction,
		Source:    p.Source(),
	}
}

type ShiftResponse struct {
	Name       string `json:"name"`
	Start      string `json:"intime"`
	End        string `json:"outtime"`
	Label      string `json:"label"`
	Calculated bool   `json:"calculated"`
}

type DayRecordResponse struct {
	EmployeeID        int64           `json:"user_id"`
	Name              string          `json:"name"`
	Code              string          `json:"code"`
	DepartmentID      int             `json:"dept_id"`
	DataSource        string          `json:"data_source"`
	Date              string          `json:"date"`
	DayName           string          `json:"day_name"`
	Shifts            []ShiftResponse `json:"shifts"`
	Entries           []MarkResponse  `json:"entries"`
	Exits             []MarkResponse  `json:"exits"`
	Status            Status          `json:"status"`
	LateMinutes       int             `json:"late_minutes"`
	EarlyLeaveMinutes int             `json:"early_leave_minutes"`
	OvertimeMinutes   int             `json:"overtime_minutes"`
	Resolved          bool            `json:"resolved"`
}

func NewDayRecordResponse(r DayRecord) DayRecordResponse {
	resp := DayRecordResponse{
		EmployeeID:        r.EmployeeID,
		Name:              r.Name,
		Code:              r.Code,
		DepartmentID:      r.DepartmentID,
		DataSource:        r.DataSource,
		Date:              r.DateString(),
		DayName:           DayName(r.Date),
		Shifts:            make([]ShiftResponse, 0, len(r.Shifts)),
		Entries:           make([]MarkResponse, 0, len(r.Entries)),
		Exits:             make([]MarkResponse, 0, len(r.Exits)),
		Status:            r.Status,
		LateMinutes:       r.LateMinutes,
		EarlyLeaveMinutes: r.EarlyLeaveMinutes,
		OvertimeMinutes:   r.OvertimeMinutes,
		Resolved:          r.Resolved,
	}
	for _, s := range r.Shifts {
		resp.Shifts = append(resp.Shifts, ShiftResponse{
			Name:       s.Name,
			Start:      s.Start.String(),
			End:        s.End.String(),
			Label:      s.Label(),
			Calculated: s.IsCalculated(),
		})
	}
	for _, p := range r.Entries {
		resp.Entries = append(resp.Entries, NewMarkResponse(p))
	}
	for _, p := range r.Exits {
		resp.Exits = append(resp.Exits, NewMarkResponse(p))
	}
	return resp
}

type AttendanceDataResponse struct {
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
	Records   []DayRecordResponse `json:"records"`
	Summary   Summary             `json:"summary"`
}

type IncompleteDayResponse struct {
	DayRecordResponse
	PunchCount  int  `json:"punch_count"`
	AutoFixable bool `json:"auto_fixable"`
}

type ListIncompleteDaysResponse struct {
	StartDate string                  `json:"start_date"`
	EndDate   string                  `json:"end_date"`
	Days      []IncompleteDayResponse `json:"days"`
}

// MarkResult is the outcome of one insert of a multi-mark operation.
type MarkResult struct {
	Time      string    `json:"time"`
	Direction Direction `json:"type"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
}

type AutoFixResponse struct {
	EmployeeID int64             `json:"user_id"`
	Date       string            `json:"date"`
	Results    []MarkResult      `json:"results"`
	Day        DayRecordResponse `json:"day"`
}

type TransitionResponse struct {
	Time string `json:"time"`
	From string `json:"from"`
	To   string `json:"to"` // entry, exit or dropped
}

func NewTransitionResponse(t Transition) TransitionResponse {
	to := t.To.String()
	if t.Dropped {
		to = "dropped"
	}
	return TransitionResponse{
		Time: schedule.TimeOfDayOf(t.Time).String(),
		From: t.From.String(),
		To:   to,
	}
}

// DayCleanResult is the outcome of resolving and persisting one day.
type DayCleanResult struct {
	EmployeeID  int64                `json:"user_id"`
	Date        string               `json:"date"`
	DataSource  string               `json:"data_source"`
	Changed     bool                 `json:"changed"`
	Applied     bool                 `json:"applied"`
	Transitions []TransitionResponse `json:"transitions"`
	Error       string               `json:"error,omitempty"`
}

type CleanDuplicatesResponse struct {
	RunID       string           `json:"run_id"`
	DryRun      bool             `json:"dry_run"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	DaysScanned int              `json:"days_scanned"`
	DaysChanged int              `json:"days_changed"`
	DaysFailed  int              `json:"days_failed"`
	Results     []DayCleanResult `json:"results"`
}
