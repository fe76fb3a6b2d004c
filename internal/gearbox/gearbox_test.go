package gearbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveline-data/driveline.report/internal/config"
)

func TestExpectedEngineSpeed(t *testing.T) {
	t.Parallel()
	geo := DefaultGeometry()

	t.Run("invalid gear returns zero", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, geo.ExpectedEngineSpeed(20, 0))
		assert.Zero(t, geo.ExpectedEngineSpeed(20, 7))
		assert.Zero(t, geo.ExpectedEngineSpeed(20, -1))
	})

	t.Run("non-positive speed returns zero", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, geo.ExpectedEngineSpeed(0, 3))
		assert.Zero(t, geo.ExpectedEngineSpeed(-5, 3))
	})

	t.Run("known operating point", func(t *testing.T) {
		t.Parallel()
		// 20 m/s in 3rd: 20 * 4.10 * 1.541 * 60 / 1.977
		want := 20 * 4.10 * 1.541 * 60 / 1.977
		assert.InDelta(t, want, geo.ExpectedEngineSpeed(20, 3), 1e-9)
	})

	t.Run("higher gear means lower rpm at same speed", func(t *testing.T) {
		t.Parallel()
		for gear := 1; gear < TopGear; gear++ {
			assert.Greater(t, geo.ExpectedEngineSpeed(25, gear), geo.ExpectedEngineSpeed(25, gear+1))
		}
	})
}

func TestExpectedSpeedRoundTrip(t *testing.T) {
	t.Parallel()
	geo := DefaultGeometry()

	for gear := 1; gear <= TopGear; gear++ {
		for _, speed := range []float64{0.5, 5, 13.4, 27.8, 40} {
			rpm := geo.ExpectedEngineSpeed(speed, gear)
			require.Greater(t, rpm, 0.0)
			got := geo.ExpectedSpeed(rpm, gear)
			assert.InDelta(t, speed, got, 1e-12, "gear %d speed %f", gear, speed)
		}
	}

	assert.Zero(t, geo.ExpectedSpeed(3000, 0))
	assert.Zero(t, geo.ExpectedSpeed(0, 3))
}

func TestRevMatchTarget(t *testing.T) {
	t.Parallel()
	geo := DefaultGeometry()

	assert.Zero(t, geo.RevMatchTarget(0, 20))
	assert.InDelta(t, geo.ExpectedEngineSpeed(20, 2), geo.RevMatchTarget(2, 20), 1e-9)
}

func TestPredictGear(t *testing.T) {
	t.Parallel()
	geo := DefaultGeometry()

	t.Run("idle or stopped returns unknown", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, geo.PredictGear(499, 10))
		assert.Zero(t, geo.PredictGear(3000, 0))
		assert.Zero(t, geo.PredictGear(3000, 0.4))
	})

	t.Run("exact ratio match per gear", func(t *testing.T) {
		t.Parallel()
		for gear := 2; gear <= TopGear; gear++ {
			speed := 20.0
			rpm := geo.ExpectedEngineSpeed(speed, gear)
			if rpm < MinRunningRPM {
				continue
			}
			assert.Equal(t, gear, geo.PredictGear(rpm, speed), "gear %d", gear)
		}
	})

	t.Run("gear 3 synthetic pair", func(t *testing.T) {
		t.Parallel()
		speed := 15.0
		rpm := geo.ExpectedEngineSpeed(speed, 3)
		assert.Equal(t, 3, geo.PredictGear(rpm, speed))
	})

	t.Run("hopeless mismatch returns unknown", func(t *testing.T) {
		t.Parallel()
		// 9000 rpm at 40 m/s sits ~1300 rpm from the nearest gear, well
		// past the confidence gate.
		assert.Zero(t, geo.PredictGear(9000, 40))
	})
}

func TestSuggestShift(t *testing.T) {
	t.Parallel()
	geo := DefaultGeometry()
	cfg := config.EmptyTuningConfig()

	t.Run("unknown gear holds", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(3000, 0, 0.1, cfg)
		assert.Equal(t, ActionHold, s.Action)
	})

	t.Run("idle rpm holds", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(400, 3, 0.1, cfg)
		assert.Equal(t, ActionHold, s.Action)
	})

	t.Run("economy upshift", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(3500, 3, 0.1, cfg)
		assert.Equal(t, ActionUpshift, s.Action)
		assert.Equal(t, ReasonEconomy, s.Reason)
		assert.Equal(t, 4, s.TargetGear)
		// Target rpm is the same road speed expressed in 4th gear.
		wantRPM := int(geo.ExpectedEngineSpeed(geo.ExpectedSpeed(3500, 3), 4))
		assert.Equal(t, wantRPM, s.TargetRPM)
		assert.Less(t, s.TargetRPM, 3500)
	})

	t.Run("economy upshift suppressed in top gear", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(3500, TopGear, 0.1, cfg)
		assert.Equal(t, ActionHold, s.Action)
	})

	t.Run("economy downshift prevents lugging", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(1300, 4, 0.1, cfg)
		assert.Equal(t, ActionDownshift, s.Action)
		assert.Equal(t, ReasonLugPrevention, s.Reason)
		assert.Equal(t, 3, s.TargetGear)
		assert.Greater(t, s.TargetRPM, 1300)
	})

	t.Run("economy downshift suppressed in first", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(1300, 1, 0.1, cfg)
		assert.Equal(t, ActionHold, s.Action)
	})

	t.Run("performance upshift near redline", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(6800, 2, 0.9, cfg)
		assert.Equal(t, ActionUpshift, s.Action)
		assert.Equal(t, ReasonRedline, s.Reason)
		assert.Equal(t, 3, s.TargetGear)
	})

	t.Run("performance downshift into powerband", func(t *testing.T) {
		t.Parallel()
		s := geo.SuggestShift(3500, 5, 0.9, cfg)
		assert.Equal(t, ActionDownshift, s.Action)
		assert.Equal(t, ReasonPowerband, s.Reason)
		assert.Equal(t, 4, s.TargetGear)
	})

	t.Run("mid throttle holds regardless of rpm", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, ActionHold, geo.SuggestShift(6800, 2, 0.5, cfg).Action)
		assert.Equal(t, ActionHold, geo.SuggestShift(1200, 4, 0.5, cfg).Action)
	})
}

func TestGeometryMonotonic(t *testing.T) {
	t.Parallel()
	geo := DefaultGeometry()

	// Expected rpm grows linearly with speed in any gear.
	for gear := 1; gear <= TopGear; gear++ {
		r1 := geo.ExpectedEngineSpeed(10, gear)
		r2 := geo.ExpectedEngineSpeed(20, gear)
		assert.InDelta(t, 2.0, r2/r1, 1e-12)
	}
}
