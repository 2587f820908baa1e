package attendance

import (
	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
)

// PlanAutoFix returns the marks that complete an incomplete day from its
// shift times. Calculated shifts have no usable times, so such days are
// refused. Only days with zero or one punch are planned.
func PlanAutoFix(rec attendance.DayRecord) ([]attendance.Punch, error) {
	if len(rec.Shifts) == 0 {
		return nil, attendance.ErrNoShiftAssigned
	}
	if rec.HasCalculatedShift() {
		return nil, attendance.ErrCalculatedShift
	}

	mark := func(s int, dir attendance.Direction) attendance.Punch {
		at := rec.Shifts[s].Start
		if dir == attendance.DirectionExit {
			at = rec.Shifts[s].End
		}
		return attendance.Punch{EmployeeID: rec.EmployeeID, Time: at.On(rec.Date), Direction: dir}
	}

	var plan []attendance.Punch
	next := 0

	switch rec.PunchCount() {
	case 0:
	case 1:
		if len(rec.Entries) == 1 {
			plan = append(plan, mark(0, attendance.DirectionExit))
		} else {
			plan = append(plan, mark(0, attendance.DirectionEntry))
		}
		next = 1
	default:
		return nil, attendance.ErrNotAutoFixable
	}

	for s := next; s < len(rec.Shifts); s++ {
		plan = append(plan, mark(s, attendance.DirectionEntry), mark(s, attendance.DirectionExit))
	}
	return plan, nil
}

// IsAutoFixable reports whether PlanAutoFix would produce a plan for an
// unresolved day.
func IsAutoFixable(rec attendance.DayRecord) bool {
	if rec.Resolved {
		return false
	}
	_, err := PlanAutoFix(rec)
	return err == nil
}
