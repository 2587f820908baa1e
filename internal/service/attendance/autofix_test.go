package attendance

import (
	"testing"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAutoFix(t *testing.T) {
	office := []schedule.Window{window("08:00", "17:00")}
	split := []schedule.Window{window("08:00", "12:00"), window("13:00", "17:00")}

	t.Run("single entry gets the shift end", func(t *testing.T) {
		plan, err := PlanAutoFix(day(office, []string{"08:05"}, nil))
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, at("17:00"), plan[0].Time)
		assert.Equal(t, attendance.DirectionExit, plan[0].Direction)
		assert.Equal(t, int64(7), plan[0].EmployeeID)
	})

	t.Run("single exit gets the shift start", func(t *testing.T) {
		plan, err := PlanAutoFix(day(office, nil, []string{"17:10"}))
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, at("08:00"), plan[0].Time)
		assert.Equal(t, attendance.DirectionEntry, plan[0].Direction)
	})

	t.Run("empty day gets a pair per shift", func(t *testing.T) {
		plan, err := PlanAutoFix(day(split, nil, nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"08:00:00", "12:00:00", "13:00:00", "17:00:00"}, clock(plan))
		assert.Equal(t, attendance.DirectionEntry, plan[0].Direction)
		assert.Equal(t, attendance.DirectionExit, plan[3].Direction)
	})

	t.Run("single punch on split shift completes first and pairs the rest", func(t *testing.T) {
		plan, err := PlanAutoFix(day(split, []string{"08:02"}, nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"12:00:00", "13:00:00", "17:00:00"}, clock(plan))
	})

	t.Run("calculated shift is refused", func(t *testing.T) {
		_, err := PlanAutoFix(day([]schedule.Window{window("00:00", "23:59")}, nil, nil))
		assert.ErrorIs(t, err, attendance.ErrCalculatedShift)
	})

	t.Run("no shift", func(t *testing.T) {
		_, err := PlanAutoFix(day(nil, []string{"08:00"}, nil))
		assert.ErrorIs(t, err, attendance.ErrNoShiftAssigned)
	})

	t.Run("three punches are not auto fixable", func(t *testing.T) {
		_, err := PlanAutoFix(day(office, []string{"08:00", "13:00"}, []string{"12:00"}))
		assert.ErrorIs(t, err, attendance.ErrNotAutoFixable)
	})
}

func TestIsAutoFixable(t *testing.T) {
	r := NewReconciler(DefaultRules())
	office := []schedule.Window{window("08:00", "17:00")}

	complete := day(office, []string{"08:00"}, []string{"17:00"})
	r.Reconcile(&complete)
	assert.False(t, IsAutoFixable(complete))

	absent := day(office, nil, nil)
	r.Reconcile(&absent)
	assert.True(t, IsAutoFixable(absent))

	half := day(office, []string{"08:00"}, nil)
	r.Reconcile(&half)
	assert.True(t, IsAutoFixable(half))
}
