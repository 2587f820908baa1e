package correction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMark(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)

	t.Run("same direction within tolerance is a duplicate", func(t *testing.T) {
		_, err := f.service.AddMark(asAdmin(), attendance.AddMarkRequest{MarkRequest: markRequest(7, "08:10", "entry")})
		assert.ErrorIs(t, err, attendance.ErrDuplicateMark)
	})

	t.Run("one tolerance apart is accepted", func(t *testing.T) {
		resp, err := f.service.AddMark(asAdmin(), attendance.AddMarkRequest{MarkRequest: markRequest(7, "08:15", "entry")})
		require.NoError(t, err)
		assert.Equal(t, "08:15:00", resp.Time)
		assert.Equal(t, attendance.SourceAdminManual, resp.Source)
	})

	t.Run("operator marks are tagged non admin", func(t *testing.T) {
		resp, err := f.service.AddMark(asOperator(3), attendance.AddMarkRequest{MarkRequest: markRequest(7, "17:00", "exit")})
		require.NoError(t, err)
		assert.Equal(t, attendance.SourceNonAdminManual, resp.Source)
		assert.Equal(t, attendance.DirectionExit, resp.Direction)
	})

	t.Run("same time in the other direction conflicts", func(t *testing.T) {
		_, err := f.service.AddMark(asAdmin(), attendance.AddMarkRequest{MarkRequest: markRequest(7, "08:00", "exit")})
		assert.ErrorIs(t, err, attendance.ErrConflictingMarks)
	})

	t.Run("department outside the grant", func(t *testing.T) {
		_, err := f.service.AddMark(asOperator(4), attendance.AddMarkRequest{MarkRequest: markRequest(7, "12:00", "exit")})
		assert.ErrorIs(t, err, attendance.ErrUnauthorizedScope)
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, err := f.service.AddMark(asAdmin(), attendance.AddMarkRequest{MarkRequest: markRequest(99, "12:00", "exit")})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := f.service.AddMark(asAdmin(), attendance.AddMarkRequest{MarkRequest: markRequest(7, "25:00", "sideways")})
		var ve validator.ValidationErrors
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("no principal", func(t *testing.T) {
		_, err := f.service.AddMark(context.Background(), attendance.AddMarkRequest{MarkRequest: markRequest(7, "12:00", "exit")})
		assert.ErrorIs(t, err, user.ErrPrincipalMissing)
	})

	assert.Equal(t, []string{"08:00", "08:15"}, clock(f.day(t, 7), attendance.DirectionEntry))
	assert.Equal(t, []string{"17:00"}, clock(f.day(t, 7), attendance.DirectionExit))
}

func TestDeleteAndReassignMark(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "17:00", attendance.DirectionEntry)

	err := f.service.DeleteMark(asAdmin(), attendance.DeleteMarkRequest{MarkRequest: markRequest(7, "08:00", "exit")})
	assert.ErrorIs(t, err, attendance.ErrMarkNotFound)

	err = f.service.ReassignMark(asAdmin(), attendance.ReassignMarkRequest{DayRequest: dayRequest(7), Time: "17:00", NewDirection: "exit"})
	require.NoError(t, err)

	err = f.service.ReassignMark(asAdmin(), attendance.ReassignMarkRequest{DayRequest: dayRequest(7), Time: "12:00", NewDirection: "exit"})
	assert.ErrorIs(t, err, attendance.ErrMarkNotFound)

	err = f.service.DeleteMark(asAdmin(), attendance.DeleteMarkRequest{MarkRequest: markRequest(7, "08:00", "entry")})
	require.NoError(t, err)

	got := f.day(t, 7)
	require.Len(t, got, 1)
	assert.Equal(t, attendance.DirectionExit, got[0].Direction)
}

func TestReplaceDayMarks(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "08:04", attendance.DirectionEntry)
	f.punch(t, 7, "12:00", attendance.DirectionExit)

	resp, err := f.service.ReplaceDayMarks(asOperator(3), attendance.SaveMarksRequest{
		DayRequest: dayRequest(7),
		Entries:    []string{"08:00"},
		Exits:      []string{"17:00"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Resolved)
	assert.Equal(t, attendance.StatusNormal, resp.Status)

	got := f.day(t, 7)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].SensorID, "untouched punch keeps its sensor")
	assert.Equal(t, attendance.SensorNonAdminManual, got[1].SensorID)

	t.Run("overlapping entries and exits are rejected", func(t *testing.T) {
		_, err := f.service.ReplaceDayMarks(asAdmin(), attendance.SaveMarksRequest{
			DayRequest: dayRequest(7),
			Entries:    []string{"08:00"},
			Exits:      []string{"08:00"},
		})
		var ve validator.ValidationErrors
		require.True(t, errors.As(err, &ve))
		assert.Len(t, f.day(t, 7), 2)
	})
}

// errStoreDown carries connection details that must never reach a caller.
var errStoreDown = errors.New(`pq: password authentication failed for user "attendance" at 10.0.0.5:5432`)

// failingPunches fails every insert after the first allowed ones.
type failingPunches struct {
	attendance.PunchRepository
	allowed int
}

func (r *failingPunches) Create(ctx context.Context, p attendance.Punch) error {
	if r.allowed == 0 {
		return errStoreDown
	}
	r.allowed--
	return r.PunchRepository.Create(ctx, p)
}

func TestReplaceDayMarks_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "17:00", attendance.DirectionExit)

	broken := f.store
	broken.Punches = &failingPunches{PunchRepository: f.store.Punches, allowed: 1}
	svc := newService(broken)

	_, err := svc.ReplaceDayMarks(asAdmin(), attendance.SaveMarksRequest{
		DayRequest: dayRequest(7),
		Entries:    []string{"07:30", "13:00"},
		Exits:      []string{"12:00", "18:00"},
	})
	require.Error(t, err)

	got := f.day(t, 7)
	assert.Equal(t, []string{"08:00"}, clock(got, attendance.DirectionEntry))
	assert.Equal(t, []string{"17:00"}, clock(got, attendance.DirectionExit))
}

func TestAutoFixIncompleteDay(t *testing.T) {
	f := newFixture(t)

	t.Run("single entry gets the shift end", func(t *testing.T) {
		f.punch(t, 7, "08:05", attendance.DirectionEntry)

		resp, err := f.service.AutoFixIncompleteDay(asAdmin(), dayRequest(7))
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.True(t, resp.Results[0].Success)
		assert.Equal(t, "17:00:00", resp.Results[0].Time)
		assert.Equal(t, attendance.DirectionExit, resp.Results[0].Direction)
		assert.True(t, resp.Day.Resolved)
		assert.Equal(t, []string{"17:00"}, clock(f.day(t, 7), attendance.DirectionExit))
	})

	t.Run("a resolved day is not auto fixable", func(t *testing.T) {
		_, err := f.service.AutoFixIncompleteDay(asAdmin(), dayRequest(7))
		assert.ErrorIs(t, err, attendance.ErrNotAutoFixable)
	})

	t.Run("absent day gets a full pair", func(t *testing.T) {
		resp, err := f.service.AutoFixIncompleteDay(asAdmin(), dayRequest(8))
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, attendance.StatusNormal, resp.Day.Status)
		for _, p := range f.day(t, 8) {
			assert.Equal(t, attendance.SensorAdminManual, p.SensorID)
		}
	})

	t.Run("no shift on sunday", func(t *testing.T) {
		req := attendance.DayRequest{EmployeeID: 7, Date: "2025-05-11"}
		_, err := f.service.AutoFixIncompleteDay(asAdmin(), req)
		assert.ErrorIs(t, err, attendance.ErrNotAutoFixable)
	})
}

func TestAutoFixIncompleteDay_PartialFailure(t *testing.T) {
	f := newFixture(t)
	broken := f.store
	broken.Punches = &failingPunches{PunchRepository: f.store.Punches, allowed: 1}

	resp, err := newService(broken).AutoFixIncompleteDay(asAdmin(), dayRequest(8))
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, "08:00:00", resp.Results[0].Time)
	assert.Empty(t, resp.Results[0].Message)

	assert.False(t, resp.Results[1].Success)
	assert.Equal(t, "17:00:00", resp.Results[1].Time)
	assert.Equal(t, "failed to save mark", resp.Results[1].Message)
	assert.NotContains(t, resp.Results[1].Message, "10.0.0.5")

	assert.False(t, resp.Day.Resolved)
	got := f.day(t, 8)
	assert.Equal(t, []string{"08:00"}, clock(got, attendance.DirectionEntry))
	assert.Empty(t, clock(got, attendance.DirectionExit))
}

func TestReassignMark_SameTimeBothDirections(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "08:00", attendance.DirectionExit)

	for _, dir := range []string{"entry", "exit"} {
		err := f.service.ReassignMark(asAdmin(), attendance.ReassignMarkRequest{DayRequest: dayRequest(7), Time: "08:00", NewDirection: dir})
		assert.ErrorIs(t, err, attendance.ErrConflictingMarks, dir)
	}

	got := f.day(t, 7)
	assert.Equal(t, []string{"08:00"}, clock(got, attendance.DirectionEntry))
	assert.Equal(t, []string{"08:00"}, clock(got, attendance.DirectionExit))
}

func TestApplyResolution(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "08:05", attendance.DirectionEntry)
	f.punch(t, 7, "17:00", attendance.DirectionEntry)

	result, err := f.service.ApplyResolution(asAdmin(), dayRequest(7))
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.True(t, result.Applied)
	require.Len(t, result.Transitions, 2)
	assert.Equal(t, "dropped", result.Transitions[0].To)
	assert.Equal(t, "exit", result.Transitions[1].To)

	got := f.day(t, 7)
	assert.Equal(t, []string{"08:00"}, clock(got, attendance.DirectionEntry))
	assert.Equal(t, []string{"17:00"}, clock(got, attendance.DirectionExit))

	again, err := f.service.ApplyResolution(asAdmin(), dayRequest(7))
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.False(t, again.Applied)
	assert.Empty(t, again.Transitions)
}

func TestApplyResolution_SameTimeBothDirections(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "08:00", attendance.DirectionExit)
	f.punch(t, 7, "17:00", attendance.DirectionExit)

	result, err := f.service.ApplyResolution(asAdmin(), dayRequest(7))
	require.NoError(t, err)
	assert.True(t, result.Applied)

	got := f.day(t, 7)
	assert.Equal(t, []string{"08:00"}, clock(got, attendance.DirectionEntry))
	assert.Equal(t, []string{"17:00"}, clock(got, attendance.DirectionExit))
}

func TestCleanDuplicates(t *testing.T) {
	f := newFixture(t)
	f.punch(t, 7, "08:00", attendance.DirectionEntry)
	f.punch(t, 7, "08:03", attendance.DirectionEntry)
	f.punch(t, 7, "17:00", attendance.DirectionExit)
	f.punch(t, 8, "07:55", attendance.DirectionExit)
	f.punch(t, 8, "17:10", attendance.DirectionExit)

	date := testDate
	req := attendance.CleanDuplicatesRequest{
		AttendanceFilter: attendance.AttendanceFilter{StartDate: &date, EndDate: &date},
		DryRun:           true,
	}

	t.Run("operators may not run it", func(t *testing.T) {
		_, err := f.service.CleanDuplicates(asOperator(3, 4), req)
		assert.ErrorIs(t, err, user.ErrAdminPrivilegeRequired)
	})

	t.Run("dry run reports without writing", func(t *testing.T) {
		resp, err := f.service.CleanDuplicates(asAdmin(), req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.RunID)
		assert.True(t, resp.DryRun)
		assert.Equal(t, 2, resp.DaysScanned)
		assert.Equal(t, 2, resp.DaysChanged)
		assert.Zero(t, resp.DaysFailed)
		for _, r := range resp.Results {
			assert.False(t, r.Applied)
		}
		assert.Len(t, f.day(t, 7), 3)
	})

	t.Run("applies one transaction per day", func(t *testing.T) {
		apply := req
		apply.DryRun = false
		apply.Workers = 2

		resp, err := f.service.CleanDuplicates(asAdmin(), apply)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.DaysChanged)
		for _, r := range resp.Results {
			assert.True(t, r.Applied, "user %d", r.EmployeeID)
		}

		assert.Equal(t, []string{"08:00"}, clock(f.day(t, 7), attendance.DirectionEntry))
		assert.Equal(t, []string{"07:55"}, clock(f.day(t, 8), attendance.DirectionEntry))
		assert.Equal(t, []string{"17:10"}, clock(f.day(t, 8), attendance.DirectionExit))
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		resp, err := f.service.CleanDuplicates(asAdmin(), req)
		require.NoError(t, err)
		assert.Zero(t, resp.DaysChanged)
		assert.Empty(t, resp.Results)
	})
}

// employeeOutage fails every delete and re-tag of one employee's punches.
// A nil err reports zero affected rows instead.
type employeeOutage struct {
	attendance.PunchRepository
	employeeID int64
	err        error
}

func (r employeeOutage) Delete(ctx context.Context, employeeID int64, at time.Time, direction attendance.Direction) (int64, error) {
	if employeeID == r.employeeID {
		return 0, r.err
	}
	return r.PunchRepository.Delete(ctx, employeeID, at, direction)
}

func (r employeeOutage) UpdateDirection(ctx context.Context, employeeID int64, at time.Time, direction attendance.Direction) (int64, error) {
	if employeeID == r.employeeID {
		return 0, r.err
	}
	return r.PunchRepository.UpdateDirection(ctx, employeeID, at, direction)
}

func TestCleanDuplicates_OneDayFails(t *testing.T) {
	setup := func(t *testing.T, err error) (*fixture, attendance.CorrectionService) {
		f := newFixture(t)
		f.punch(t, 7, "08:00", attendance.DirectionEntry)
		f.punch(t, 7, "08:03", attendance.DirectionEntry)
		f.punch(t, 7, "17:00", attendance.DirectionExit)
		f.punch(t, 8, "07:55", attendance.DirectionExit)
		f.punch(t, 8, "17:10", attendance.DirectionExit)

		broken := f.store
		broken.Punches = employeeOutage{PunchRepository: f.store.Punches, employeeID: 8, err: err}
		return f, newService(broken)
	}

	date := testDate
	req := attendance.CleanDuplicatesRequest{
		AttendanceFilter: attendance.AttendanceFilter{StartDate: &date, EndDate: &date},
		Workers:          2,
	}
	byEmployee := func(resp attendance.CleanDuplicatesResponse) map[int64]attendance.DayCleanResult {
		out := make(map[int64]attendance.DayCleanResult, len(resp.Results))
		for _, r := range resp.Results {
			out[r.EmployeeID] = r
		}
		return out
	}

	t.Run("other days are still applied", func(t *testing.T) {
		f, svc := setup(t, errStoreDown)

		resp, err := svc.CleanDuplicates(asAdmin(), req)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.DaysScanned)
		assert.Equal(t, 1, resp.DaysChanged)
		assert.Equal(t, 1, resp.DaysFailed)

		results := byEmployee(resp)
		assert.True(t, results[7].Applied)
		assert.Empty(t, results[7].Error)

		failed := results[8]
		assert.False(t, failed.Applied)
		assert.Equal(t, "failed to clean day", failed.Error)
		assert.NotContains(t, failed.Error, "password")

		assert.Equal(t, []string{"08:00"}, clock(f.day(t, 7), attendance.DirectionEntry))
		assert.Equal(t, []string{"07:55", "17:10"}, clock(f.day(t, 8), attendance.DirectionExit))
	})

	t.Run("a vanished mark keeps its message", func(t *testing.T) {
		_, svc := setup(t, nil)

		resp, err := svc.CleanDuplicates(asAdmin(), req)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.DaysFailed)
		assert.Equal(t, attendance.ErrMarkNotFound.Error(), byEmployee(resp)[8].Error)
	})
}
