package drivestats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersDelta(t *testing.T) {
	t.Parallel()

	t.Run("zero against itself", func(t *testing.T) {
		t.Parallel()
		c := Counters{TotalStalls: 4, TotalUpshifts: 10, UpshiftsGood: 7, TotalLugTime: 12.5}
		assert.Equal(t, Counters{}, c.Delta(c.snapshot()))
	})

	t.Run("difference per counter", func(t *testing.T) {
		t.Parallel()
		start := Counters{TotalStalls: 2, TotalLaunches: 5, LaunchesStalled: 1, TotalLugTime: 3.0}
		cur := start
		cur.TotalStalls = 3
		cur.TotalLaunches = 8
		cur.LaunchesGood = 2
		cur.TotalLugTime = 4.5

		d := cur.Delta(start)
		assert.EqualValues(t, 1, d.TotalStalls)
		assert.EqualValues(t, 3, d.TotalLaunches)
		assert.EqualValues(t, 2, d.LaunchesGood)
		assert.Zero(t, d.LaunchesStalled)
		assert.InDelta(t, 1.5, d.TotalLugTime, 1e-12)
	})
}

func TestDecodeStats(t *testing.T) {
	t.Parallel()

	t.Run("empty blob yields defaults", func(t *testing.T) {
		t.Parallel()
		s := DecodeStats(nil)
		assert.Zero(t, s.TotalStalls)
		assert.Len(t, s.GearShiftCounts, 6)
		assert.Empty(t, s.SessionHistory)
	})

	t.Run("corrupt blob yields defaults", func(t *testing.T) {
		t.Parallel()
		s := DecodeStats([]byte(`{"total_stalls": `))
		assert.Zero(t, s.TotalStalls)
		assert.Len(t, s.GearShiftCounts, 6)
	})

	t.Run("partial blob merges over defaults", func(t *testing.T) {
		t.Parallel()
		// A blob from an older version that predates several fields.
		s := DecodeStats([]byte(`{"total_stalls": 7, "total_upshifts": 3}`))
		assert.EqualValues(t, 7, s.TotalStalls)
		assert.EqualValues(t, 3, s.TotalUpshifts)
		assert.Zero(t, s.TotalDownshifts)
		// Maps absent from the blob come back initialized.
		assert.Len(t, s.GearShiftCounts, 6)
		assert.Len(t, s.GearSmoothnessSums, 6)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		s := DefaultStats()
		s.TotalStalls = 2
		s.GearShiftCounts[3] = 9
		s.GearSmoothnessSums[3] = 4.5
		s.SessionHistory = []SessionEntry{{ID: "abc", Duration: 90, Upshifts: 4}}

		data, err := s.Encode()
		require.NoError(t, err)

		got := DecodeStats(data)
		assert.EqualValues(t, 2, got.TotalStalls)
		assert.EqualValues(t, 9, got.GearShiftCounts[3])
		assert.InDelta(t, 4.5, got.GearSmoothnessSums[3], 1e-12)
		require.Len(t, got.SessionHistory, 1)
		assert.Equal(t, "abc", got.SessionHistory[0].ID)
	})
}

func TestGearAverageSmoothness(t *testing.T) {
	t.Parallel()

	s := DefaultStats()
	assert.Zero(t, s.GearAverageSmoothness(2))

	s.GearShiftCounts[2] = 4
	s.GearSmoothnessSums[2] = 2.0
	assert.InDelta(t, 0.5, s.GearAverageSmoothness(2), 1e-12)
}

func TestGradeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", GradeNone.String())
	assert.Equal(t, "good", GradeGood.String())
	assert.Equal(t, "ok", GradeOK.String())
	assert.Equal(t, "poor", GradePoor.String())
}
