package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat defaults to xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is the attachment name offered to the browser.
func (f Format) FileName() string {
	return "asistencia." + string(f)
}

// Write renders records, ordered by employee then date, in the given format.
func Write(w io.Writer, f Format, records []attendance.DayRecord) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// employeeBlock is the run of consecutive records of one employee.
type employeeBlock struct {
	name    string
	records []attendance.DayRecord
}

func groupByEmployee(records []attendance.DayRecord) []employeeBlock {
	var blocks []employeeBlock
	index := make(map[int64]int)
	for _, r := range records {
		i, ok := index[r.EmployeeID]
		if !ok {
			i = len(blocks)
			index[r.EmployeeID] = i
			blocks = append(blocks, employeeBlock{name: r.Name})
		}
		blocks[i].records = append(blocks[i].records, r)
	}
	return blocks
}

func shiftText(r attendance.DayRecord) string {
	if len(r.Shifts) == 0 {
		return "Sin turno asignado"
	}
	parts := make([]string, 0, len(r.Shifts))
	for _, s := range r.Shifts {
		parts = append(parts, s.Start.Short()+" - "+s.End.Short())
	}
	return strings.Join(parts, " / ")
}
