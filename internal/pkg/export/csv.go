package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
)

var csvHeaders = []string{"Usuario", "Código", "Fecha", "Día", "Turnos", "Entradas", "Salidas", "Estado"}

// WriteCSV renders one row per employee-day.
func WriteCSV(w io.Writer, records []attendance.DayRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Name,
			r.Code,
			r.DateString(),
			attendance.DayName(r.Date),
			shiftText(r),
			joinMarks(r.Entries),
			joinMarks(r.Exits),
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func joinMarks(punches []attendance.Punch) string {
	parts := make([]string, 0, len(punches))
	for _, p := range punches {
		parts = append(parts, schedule.TimeOfDayOf(p.Time).Short())
	}
	return strings.Join(parts, " ")
}
