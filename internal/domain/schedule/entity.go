package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock offset from midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "15:04", "15:04:05" and "15:04:05.000000" as stored
// by the time_table columns.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	var values [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}
	if values[0] > 23 || values[1] > 59 || values[2] > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	d := time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second
	return TimeOfDay(d), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants and tests.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayOf returns the wall-clock part of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}

// On places the time of day on the calendar date of d, in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location()).Add(time.Duration(t))
}

func (t TimeOfDay) hms() (int, int, int) {
	total := int(time.Duration(t) / time.Second)
	return total / 3600, (total % 3600) / 60, total % 60
}

// String formats as HH:MM:SS.
func (t TimeOfDay) String() string {
	h, m, s := t.hms()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Short formats as HH:MM.
func (t TimeOfDay) Short() string {
	h, m, _ := t.hms()
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Window is one expected attendance interval on a given day.
type Window struct {
	Name  string    `json:"name"`
	Start TimeOfDay `json:"intime"`
	End   TimeOfDay `json:"outtime"`
}

var (
	calculatedStart = MustParseTimeOfDay("00:00")
	calculatedEnd   = MustParseTimeOfDay("23:59")
)

// IsCalculated reports whether w is the flexible-hours sentinel 00:00-23:59.
// Comparison is at minute precision so 23:59:59 also qualifies.
func (w Window) IsCalculated() bool {
	return w.Start.Short() == calculatedStart.Short() && w.End.Short() == calculatedEnd.Short()
}

// Label renders the window the way operators read it.
func (w Window) Label() string {
	if w.IsCalculated() {
		return "Calculated shift"
	}
	return w.Start.Short() + " - " + w.End.Short()
}

// Assignment is one row of an employee's recurring weekly shift plan joined
// with its time table entry.
type Assignment struct {
	EmployeeID   int64
	ScheduleID   int
	ScheduleName string
	// Weekday uses ISO numbering: 1 = Monday ... 7 = Sunday. Zero means the
	// schedule has no time slot attached.
	Weekday   int
	BeginDate time.Time
	EndDate   time.Time
	TimeName  string
	Start     *TimeOfDay
	End       *TimeOfDay
}

// Complete reports whether the row carries everything expansion needs.
func (a Assignment) Complete() bool {
	return a.Weekday >= 1 && a.Weekday <= 7 &&
		!a.BeginDate.IsZero() && !a.EndDate.IsZero() &&
		a.Start != nil && a.End != nil
}

// ISOWeekday converts a time.Weekday into 1 = Monday ... 7 = Sunday.
func ISOWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
