package attendance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
)

const DateLayout = "2006-01-02"

// Direction is the check_type column: 0 = entry, 1 = exit.
type Direction int

const (
	DirectionEntry Direction = 0
	DirectionExit  Direction = 1
)

func (d Direction) String() string {
	if d == DirectionExit {
		return "exit"
	}
	return "entry"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionExit {
		return DirectionEntry
	}
	return DirectionExit
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "in":
		return DirectionEntry, nil
	case "exit", "out":
		return DirectionExit, nil
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Sensor ids reserved for manual marks. Every other id is a physical reader.
const (
	SensorAdminManual    = 1
	SensorNonAdminManual = 2
)

type SourceTag string

const (
	SourceSensor         SourceTag = "sensor"
	SourceAdminManual    SourceTag = "admin_manual"
	SourceNonAdminManual SourceTag = "non_admin_manual"
)

func SourceTagForSensor(sensorID int) SourceTag {
	switch sensorID {
	case SensorAdminManual:
		return SourceAdminManual
	case SensorNonAdminManual:
		return SourceNonAdminManual
	}
	return SourceSensor
}

// Punch is one raw clock event. Time holds the store-local wall clock; the
// location carries no meaning.
type Punch struct {
	EmployeeID int64
	Time       time.Time
	Direction  Direction
	SensorID   int
}

func (p Punch) Source() SourceTag {
	return SourceTagForSensor(p.SensorID)
}

// Date returns the calendar day of the punch.
func (p Punch) Date() string {
	return p.Time.Format(DateLayout)
}

// SortPunches orders punches by time, keeping input order for ties.
func SortPunches(punches []Punch) {
	sort.SliceStable(punches, func(i, j int) bool {
		return punches[i].Time.Before(punches[j].Time)
	})
}

type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
	StatusAbsent  Status = "absent"
)

// DayRecord is the reconciled view of one employee on one date.
type DayRecord struct {
	EmployeeID        int64
	Name              string
	Code              string
	DepartmentID      int
	DataSource        string
	Date              time.Time
	Shifts            []schedule.Window
	Entries           []Punch
	Exits             []Punch
	Status            Status
	LateMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	Resolved          bool
}

func (r DayRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// PunchCount returns the number of entries and exits together.
func (r DayRecord) PunchCount() int {
	return len(r.Entries) + len(r.Exits)
}

// HasCalculatedShift reports whether any expected shift is the flexible-hours
// sentinel.
func (r DayRecord) HasCalculatedShift() bool {
	for _, s := range r.Shifts {
		if s.IsCalculated() {
			return true
		}
	}
	return false
}

type Summary struct {
	Total    int `json:"total"`
	Normal   int `json:"normal"`
	Warnings int `json:"warnings"`
	Absent   int `json:"absent"`
}

// Summarize counts records by status.
func Summarize(records []DayRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusWarning:
			s.Warnings++
		case StatusAbsent:
			s.Absent++
		default:
			s.Normal++
		}
	}
	return s
}

// DayName returns the English weekday name of a date.
func DayName(d time.Time) string {
	return d.Weekday().String()
}
