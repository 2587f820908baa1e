package export

import (
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Asistencia"

var xlsxHeaders = []string{"FECHA", "TURNO", "ENTRADA 1", "SALIDA 1", "ENTRADA 2", "SALIDA 2", "TARDANZAS", "RETIROS", "EXTRA"}

// WriteXLSX renders one table per employee: a name row, the header, one row
// per day, a totals row and the worked time, separated by two blank rows.
func WriteXLSX(w io.Writer, records []attendance.DayRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := f.SetDefaultFont("Arial"); err != nil {
		return err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	rowStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}

	lastCol := string(rune('A' + len(xlsxHeaders) - 1))
	row := 1
	for _, block := range groupByEmployee(records) {
		// name
		if err := f.MergeCell(sheetName, cell("A", row), cell(lastCol, row)); err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell("A", row), block.name)
		f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)
		row++

		if err := f.SetSheetRow(sheetName, cell("A", row), &xlsxHeaders); err != nil {
			return err
		}
		f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)
		row++

		var late, early, extra int
		worked := decimal.Zero
		for _, r := range block.records {
			values := []interface{}{
				r.DateString(),
				shiftText(r),
				markAt(r.Entries, 0),
				markAt(r.Exits, 0),
				markAt(r.Entries, 1),
				markAt(r.Exits, 1),
				r.LateMinutes,
				r.EarlyLeaveMinutes,
				r.OvertimeMinutes,
			}
			if err := f.SetSheetRow(sheetName, cell("A", row), &values); err != nil {
				return err
			}
			f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), rowStyle)

			late += r.LateMinutes
			early += r.EarlyLeaveMinutes
			extra += r.OvertimeMinutes
			worked = worked.Add(WorkedSeconds(r))
			row++
		}

		f.SetCellValue(sheetName, cell("A", row), "TOTAL")
		f.SetCellValue(sheetName, cell("G", row), late)
		f.SetCellValue(sheetName, cell("H", row), early)
		f.SetCellValue(sheetName, cell("I", row), extra)
		f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), rowStyle)
		row++

		if err := f.MergeCell(sheetName, cell("A", row), cell(lastCol, row)); err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell("A", row), "TRABAJADO: "+FormatWorked(worked))
		f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), rowStyle)

		row += 3
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 28)
	f.SetColWidth(sheetName, "C", lastCol, 11)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func markAt(punches []attendance.Punch, i int) string {
	if i >= len(punches) {
		return ""
	}
	return schedule.TimeOfDayOf(punches[i].Time).String()
}

// WorkedSeconds pairs entries and exits in order and sums the positive
// spans. Unpaired punches count nothing.
func WorkedSeconds(r attendance.DayRecord) decimal.Decimal {
	total := decimal.Zero
	pairs := min(len(r.Entries), len(r.Exits))
	for i := 0; i < pairs; i++ {
		span := r.Exits[i].Time.Sub(r.Entries[i].Time)
		if span > 0 {
			total = total.Add(decimal.NewFromInt(int64(span / time.Second)))
		}
	}
	return total
}

// FormatWorked renders seconds as HH:MM, truncating leftover seconds.
func FormatWorked(seconds decimal.Decimal) string {
	hours := seconds.Div(decimal.NewFromInt(3600)).Floor()
	minutes := seconds.Mod(decimal.NewFromInt(3600)).Div(decimal.NewFromInt(60)).Floor()
	return fmt.Sprintf("%02d:%02d", hours.IntPart(), minutes.IntPart())
}
