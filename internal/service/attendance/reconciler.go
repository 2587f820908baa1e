package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
)

const DefaultTolerance = 15 * time.Minute

// Rules holds the tunables of reconciliation. One tolerance serves both the
// duplicate window and the lateness grace.
type Rules struct {
	Tolerance time.Duration
}

func DefaultRules() Rules {
	return Rules{Tolerance: DefaultTolerance}
}

// Reconciler classifies employee-days against their expected shifts.
type Reconciler struct {
	rules    Rules
	resolver *Resolver
}

func NewReconciler(rules Rules) *Reconciler {
	if rules.Tolerance <= 0 {
		rules.Tolerance = DefaultTolerance
	}
	return &Reconciler{rules: rules, resolver: NewResolver(rules)}
}

func (r *Reconciler) Rules() Rules {
	return r.rules
}

func (r *Reconciler) Resolver() *Resolver {
	return r.resolver
}

// Reconcile fills the status, minute counters and resolved flag of rec from
// its shifts and punches. Entries and exits are sorted in place.
func (r *Reconciler) Reconcile(rec *attendance.DayRecord) {
	attendance.SortPunches(rec.Entries)
	attendance.SortPunches(rec.Exits)

	rec.LateMinutes, rec.EarlyLeaveMinutes, rec.OvertimeMinutes = 0, 0, 0

	if len(rec.Entries) == 0 && len(rec.Exits) == 0 && len(rec.Shifts) > 0 {
		rec.Status = attendance.StatusAbsent
		rec.Resolved = r.IsResolved(*rec)
		return
	}

	var fixed []schedule.Window
	for _, s := range rec.Shifts {
		if !s.IsCalculated() {
			fixed = append(fixed, s)
		}
	}

	if len(fixed) > 0 && len(rec.Entries) > 0 {
		earliestStart := fixed[0].Start
		for _, s := range fixed[1:] {
			earliestStart = min(earliestStart, s.Start)
		}
		late := rec.Entries[0].Time.Sub(earliestStart.On(rec.Date))
		if late > r.rules.Tolerance {
			rec.LateMinutes = roundMinutes(late)
		}
	}

	if len(fixed) > 0 && len(rec.Exits) > 0 {
		latestEnd := fixed[0].End
		for _, s := range fixed[1:] {
			latestEnd = max(latestEnd, s.End)
		}
		diff := rec.Exits[len(rec.Exits)-1].Time.Sub(latestEnd.On(rec.Date))
		switch {
		case -diff > r.rules.Tolerance:
			rec.EarlyLeaveMinutes = roundMinutes(-diff)
		case diff > r.rules.Tolerance:
			rec.OvertimeMinutes = roundMinutes(diff)
		}
	}

	rec.Status = attendance.StatusNormal
	if rec.LateMinutes > 0 || rec.EarlyLeaveMinutes > 0 {
		rec.Status = attendance.StatusWarning
	}

	rec.Resolved = r.IsResolved(*rec)
}

// IsResolved reports whether the day needs no further correction: the
// resolver would change nothing and every punch pairs with a shift. An
// absent day is unresolved until marks are added.
func (r *Reconciler) IsResolved(rec attendance.DayRecord) bool {
	count := rec.PunchCount()
	if count == 0 {
		return len(rec.Shifts) == 0
	}
	if count%2 != 0 || count > 2*len(rec.Shifts) {
		return false
	}
	return !r.resolver.Resolve(rec.Entries, rec.Exits).Changed
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
