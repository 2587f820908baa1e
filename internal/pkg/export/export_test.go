package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var monday = time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)

func punch(day time.Time, hhmm string, dir attendance.Direction) attendance.Punch {
	return attendance.Punch{EmployeeID: 7, Time: schedule.MustParseTimeOfDay(hhmm).On(day), Direction: dir}
}

func sampleRecords() []attendance.DayRecord {
	office := []schedule.Window{{Name: "Office", Start: schedule.MustParseTimeOfDay("08:00"), End: schedule.MustParseTimeOfDay("17:00")}}
	tuesday := monday.AddDate(0, 0, 1)
	return []attendance.DayRecord{
		{
			EmployeeID: 7, Name: "Ana", Code: "A7", Date: monday, Shifts: office,
			Entries:     []attendance.Punch{punch(monday, "08:20", attendance.DirectionEntry)},
			Exits:       []attendance.Punch{punch(monday, "17:00", attendance.DirectionExit)},
			Status:      attendance.StatusWarning,
			LateMinutes: 20,
		},
		{
			EmployeeID: 7, Name: "Ana", Code: "A7", Date: tuesday, Shifts: office,
			Entries:         []attendance.Punch{punch(tuesday, "08:00", attendance.DirectionEntry)},
			Exits:           []attendance.Punch{punch(tuesday, "18:00", attendance.DirectionExit)},
			Status:          attendance.StatusNormal,
			OvertimeMinutes: 60,
		},
		{
			EmployeeID: 8, Name: "Bruno", Code: "B8", Date: monday,
			Status: attendance.StatusNormal,
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "asistencia.csv", f.FileName())

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWorkedSeconds(t *testing.T) {
	records := sampleRecords()
	assert.True(t, decimal.NewFromInt(8*3600+40*60).Equal(WorkedSeconds(records[0])))
	assert.True(t, WorkedSeconds(records[2]).IsZero())

	total := WorkedSeconds(records[0]).Add(WorkedSeconds(records[1]))
	assert.Equal(t, "18:40", FormatWorked(total))
	assert.Equal(t, "00:00", FormatWorked(decimal.NewFromInt(59)))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	get := func(c string) string {
		v, err := f.GetCellValue(sheetName, c)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Ana", get("A1"))
	assert.Equal(t, "FECHA", get("A2"))
	assert.Equal(t, "EXTRA", get("I2"))
	assert.Equal(t, "2025-05-05", get("A3"))
	assert.Equal(t, "08:00 - 17:00", get("B3"))
	assert.Equal(t, "08:20:00", get("C3"))
	assert.Equal(t, "17:00:00", get("D3"))
	assert.Equal(t, "", get("E3"))
	assert.Equal(t, "20", get("G3"))
	assert.Equal(t, "TOTAL", get("A5"))
	assert.Equal(t, "20", get("G5"))
	assert.Equal(t, "60", get("I5"))
	assert.Equal(t, "TRABAJADO: 18:40", get("A6"))

	// two blank rows, then the next employee
	assert.Equal(t, "", get("A7"))
	assert.Equal(t, "", get("A8"))
	assert.Equal(t, "Bruno", get("A9"))
	assert.Equal(t, "Sin turno asignado", get("B11"))
	assert.Equal(t, "TRABAJADO: 00:00", get("A13"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeaders, rows[0])
	assert.Equal(t, []string{"Ana", "A7", "2025-05-05", "Monday", "08:00 - 17:00", "08:20", "17:00", "warning"}, rows[1])
	assert.Equal(t, "Sin turno asignado", rows[3][4])
}
