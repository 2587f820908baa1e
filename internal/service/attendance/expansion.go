package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
)

// DatesBetween returns every calendar date in [start, end].
func DatesBetween(start, end time.Time) []time.Time {
	start, end = attendance.Day(start), attendance.Day(end)
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ExpandShifts turns recurring weekly assignment rows into the expected
// windows of each date, keyed by YYYY-MM-DD. Windows sharing start and end
// collapse into the first one seen. Dates without shifts are absent from the
// map.
func ExpandShifts(rows []schedule.Assignment, dates []time.Time) map[string][]schedule.Window {
	out := make(map[string][]schedule.Window)

	for _, date := range dates {
		day := attendance.Day(date)
		weekday := schedule.ISOWeekday(day)
		key := day.Format(attendance.DateLayout)

		seen := make(map[[2]schedule.TimeOfDay]bool)
		for _, row := range rows {
			if !row.Complete() || row.Weekday != weekday {
				continue
			}
			if day.Before(attendance.Day(row.BeginDate)) || day.After(attendance.Day(row.EndDate)) {
				continue
			}

			k := [2]schedule.TimeOfDay{*row.Start, *row.End}
			if seen[k] {
				continue
			}
			seen[k] = true
			out[key] = append(out[key], schedule.Window{
				Name:  row.TimeName,
				Start: *row.Start,
				End:   *row.End,
			})
		}
	}

	return out
}

// ExpandByEmployee groups rows per employee before expanding them.
func ExpandByEmployee(rows []schedule.Assignment, dates []time.Time) map[int64]map[string][]schedule.Window {
	grouped := make(map[int64][]schedule.Assignment)
	for _, row := range rows {
		grouped[row.EmployeeID] = append(grouped[row.EmployeeID], row)
	}

	out := make(map[int64]map[string][]schedule.Window, len(grouped))
	for id, empRows := range grouped {
		out[id] = ExpandShifts(empRows, dates)
	}
	return out
}
