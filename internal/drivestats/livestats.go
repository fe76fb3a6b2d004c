package drivestats

import (
	"encoding/json"
	"fmt"

	"github.com/driveline-data/driveline.report/internal/gearbox"
	"github.com/driveline-data/driveline.report/internal/units"
)

// LiveStats is the snapshot written to the live blob for the display
// surface: current-session counts, in-progress flags, the current
// predicted gear, and the latest shift suggestion. Consumers read the
// blob; they never touch the tracker.
type LiveStats struct {
	SessionID string `json:"session_id"`

	Stalls       int64 `json:"stalls"`
	Lugs         int64 `json:"lugs"`
	Shifts       int64 `json:"shifts"`
	GoodShifts   int64 `json:"good_shifts"`
	Launches     int64 `json:"launches"`
	GoodLaunches int64 `json:"good_launches"`

	IsLugging   bool `json:"is_lugging"`
	IsLaunching bool `json:"is_launching"`

	Gear          int `json:"gear"`
	PredictedGear int `json:"predicted_gear"`

	// Road speed at the last processed tick, in m/s unless the query
	// surface converted it.
	Speed      float64 `json:"speed"`
	SpeedUnits string  `json:"speed_units"`

	Suggestion gearbox.Suggestion `json:"suggestion"`

	// Last graded shift, neutral outside its display window.
	LastShiftSmoothness float64 `json:"last_shift_smoothness"`
	LastShiftGrade      string  `json:"last_shift_grade"`
}

// Encode marshals the snapshot for persistence.
func (l LiveStats) Encode() ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode live stats: %w", err)
	}
	return data, nil
}

// DecodeLiveStats unmarshals a live blob.
func DecodeLiveStats(data []byte) (LiveStats, error) {
	var l LiveStats
	if err := json.Unmarshal(data, &l); err != nil {
		return LiveStats{}, fmt.Errorf("decode live stats: %w", err)
	}
	return l, nil
}

// LiveStats builds the current live snapshot from the session delta, the
// open sub-state flags, and the advisor's view of the previous sample.
func (t *Tracker) LiveStats() LiveStats {
	d := t.CurrentSession()
	smoothness, grade := t.LastShiftInfo()

	return LiveStats{
		SessionID:           t.sessionID,
		Stalls:              d.TotalStalls,
		Lugs:                d.TotalLugs,
		Shifts:              d.TotalUpshifts + d.TotalDownshifts,
		GoodShifts:          d.UpshiftsGood + d.DownshiftsGood,
		Launches:            d.TotalLaunches,
		GoodLaunches:        d.LaunchesGood,
		IsLugging:           t.lugging,
		IsLaunching:         t.launching,
		Gear:                t.prev.Gear,
		PredictedGear:       t.geo.PredictGear(t.prev.EngineRPM, t.prev.Speed),
		Speed:               t.prev.Speed,
		SpeedUnits:          units.MPS,
		Suggestion:          t.geo.SuggestShift(t.prev.EngineRPM, t.prev.Gear, t.prev.Throttle, t.cfg),
		LastShiftSmoothness: smoothness,
		LastShiftGrade:      grade.String(),
	}
}
