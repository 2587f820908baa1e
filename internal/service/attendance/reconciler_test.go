package attendance

import (
	"testing"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
)

func window(start, end string) schedule.Window {
	return schedule.Window{
		Name:  start + "-" + end,
		Start: schedule.MustParseTimeOfDay(start),
		End:   schedule.MustParseTimeOfDay(end),
	}
}

func day(shifts []schedule.Window, entries, exits []string) attendance.DayRecord {
	return attendance.DayRecord{
		EmployeeID: 7,
		Date:       testDay,
		Shifts:     shifts,
		Entries:    punches(attendance.DirectionEntry, entries...),
		Exits:      punches(attendance.DirectionExit, exits...),
	}
}

func TestReconciler_Reconcile(t *testing.T) {
	r := NewReconciler(DefaultRules())
	office := []schedule.Window{window("08:00", "17:00")}
	calculated := []schedule.Window{window("00:00", "23:59")}

	tests := []struct {
		name       string
		rec        attendance.DayRecord
		wantStatus attendance.Status
		wantLate   int
		wantEarly  int
		wantOver   int
		resolved   bool
	}{
		{
			name:       "on time",
			rec:        day(office, []string{"07:58"}, []string{"17:02"}),
			wantStatus: attendance.StatusNormal,
			resolved:   true,
		},
		{
			name:       "late by sixteen minutes",
			rec:        day(office, []string{"08:16"}, []string{"17:00"}),
			wantStatus: attendance.StatusWarning,
			wantLate:   16,
			resolved:   true,
		},
		{
			name:       "fifteen minutes is within tolerance",
			rec:        day(office, []string{"08:15"}, []string{"17:00"}),
			wantStatus: attendance.StatusNormal,
			resolved:   true,
		},
		{
			name:       "late minutes round to nearest",
			rec:        day(office, []string{"08:20:40"}, []string{"17:00"}),
			wantStatus: attendance.StatusWarning,
			wantLate:   21,
			resolved:   true,
		},
		{
			name:       "early leave",
			rec:        day(office, []string{"08:00"}, []string{"16:30"}),
			wantStatus: attendance.StatusWarning,
			wantEarly:  30,
			resolved:   true,
		},
		{
			name:       "overtime alone is not a warning",
			rec:        day(office, []string{"08:00"}, []string{"18:00"}),
			wantStatus: attendance.StatusNormal,
			wantOver:   60,
			resolved:   true,
		},
		{
			name:       "absent",
			rec:        day(office, nil, nil),
			wantStatus: attendance.StatusAbsent,
		},
		{
			name:       "absent on a calculated shift",
			rec:        day(calculated, nil, nil),
			wantStatus: attendance.StatusAbsent,
		},
		{
			name:       "calculated shift skips lateness and overtime",
			rec:        day(calculated, []string{"23:00"}, []string{"01:00"}),
			wantStatus: attendance.StatusNormal,
			resolved:   true,
		},
		{
			name:       "no shift and no punches",
			rec:        day(nil, nil, nil),
			wantStatus: attendance.StatusNormal,
			resolved:   true,
		},
		{
			name:       "punches without shift",
			rec:        day(nil, []string{"09:00"}, []string{"12:00"}),
			wantStatus: attendance.StatusNormal,
		},
		{
			name:       "earliest start and latest end across split shifts",
			rec:        day([]schedule.Window{window("13:00", "17:00"), window("08:00", "12:00")}, []string{"08:30", "13:00"}, []string{"12:00", "17:00"}),
			wantStatus: attendance.StatusWarning,
			wantLate:   30,
			resolved:   true,
		},
		{
			name:       "calculated shift mixed with a fixed one uses the fixed one",
			rec:        day([]schedule.Window{window("00:00", "23:59"), window("09:00", "18:00")}, []string{"09:20"}, []string{"18:00"}),
			wantStatus: attendance.StatusWarning,
			wantLate:   20,
			resolved:   true,
		},
		{
			name:       "only entries",
			rec:        day(office, []string{"08:30"}, nil),
			wantStatus: attendance.StatusWarning,
			wantLate:   30,
		},
		{
			name:       "duplicate entries are unresolved",
			rec:        day(office, []string{"08:00", "08:03"}, []string{"17:00", "17:05"}),
			wantStatus: attendance.StatusNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			r.Reconcile(&rec)

			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.Equal(t, tt.wantLate, rec.LateMinutes)
			assert.Equal(t, tt.wantEarly, rec.EarlyLeaveMinutes)
			assert.Equal(t, tt.wantOver, rec.OvertimeMinutes)
			assert.Equal(t, tt.resolved, rec.Resolved)
			assert.False(t, rec.EarlyLeaveMinutes > 0 && rec.OvertimeMinutes > 0)
		})
	}
}

func TestReconciler_ZeroToleranceFallsBackToDefault(t *testing.T) {
	r := NewReconciler(Rules{})
	assert.Equal(t, DefaultTolerance, r.Rules().Tolerance)
}

func TestSummarize(t *testing.T) {
	r := NewReconciler(DefaultRules())
	office := []schedule.Window{window("08:00", "17:00")}

	records := []attendance.DayRecord{
		day(office, []string{"08:00"}, []string{"17:00"}),
		day(office, []string{"09:00"}, []string{"17:00"}),
		day(office, nil, nil),
		day(nil, nil, nil),
	}
	for i := range records {
		r.Reconcile(&records[i])
	}

	assert.Equal(t, attendance.Summary{Total: 4, Normal: 2, Warnings: 1, Absent: 1}, attendance.Summarize(records))
}
