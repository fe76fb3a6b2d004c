package drivestats

import (
	"encoding/json"
	"fmt"

	"github.com/driveline-data/driveline.report/internal/monitoring"
)

// Grade is the quality bucket assigned to a shift or launch.
type Grade int

// Grade values. The zero value means "no grade" so a zeroed last-shift
// snapshot reads as neutral.
const (
	GradeNone Grade = iota
	GradeGood
	GradeOK
	GradePoor
)

// String returns the lowercase grade name.
func (g Grade) String() string {
	switch g {
	case GradeGood:
		return "good"
	case GradeOK:
		return "ok"
	case GradePoor:
		return "poor"
	default:
		return "none"
	}
}

// Counters is the cumulative (all-time) event tally. Mutated only by the
// Tracker; persisted as part of Stats. For every graded category
// good+ok+poor never exceeds the total, and stalled launches count toward
// total launches as well.
type Counters struct {
	TotalDrives    int64   `json:"total_drives"`
	TotalDriveTime float64 `json:"total_drive_time"` // seconds

	TotalStalls int64 `json:"total_stalls"`

	TotalLugs    int64   `json:"total_lugs"`
	TotalLugTime float64 `json:"total_lug_time"` // seconds, closed intervals only

	TotalUpshifts  int64 `json:"total_upshifts"`
	UpshiftsGood   int64 `json:"upshifts_good"`
	UpshiftsOK     int64 `json:"upshifts_ok"`
	UpshiftsPoor   int64 `json:"upshifts_poor"`

	TotalDownshifts int64 `json:"total_downshifts"`
	DownshiftsGood  int64 `json:"downshifts_good"`
	DownshiftsOK    int64 `json:"downshifts_ok"`
	DownshiftsPoor  int64 `json:"downshifts_poor"`

	TotalLaunches   int64 `json:"total_launches"`
	LaunchesGood    int64 `json:"launches_good"`
	LaunchesOK      int64 `json:"launches_ok"`
	LaunchesPoor    int64 `json:"launches_poor"`
	LaunchesStalled int64 `json:"launches_stalled"`

	// Per-gear shift quality: count and smoothness-metric sum, for
	// computing a per-gear average.
	GearShiftCounts    map[int]int64   `json:"gear_shift_counts"`
	GearSmoothnessSums map[int]float64 `json:"gear_smoothness_sums"`
}

// Delta returns the arithmetic difference of the cumulative counters and a
// snapshot taken earlier. This is how "stats for this drive only" is
// derived: one counter set plus an immutable start-of-session snapshot,
// never a second live counter set that could drift.
func (c Counters) Delta(start Counters) Counters {
	return Counters{
		TotalDrives:     c.TotalDrives - start.TotalDrives,
		TotalDriveTime:  c.TotalDriveTime - start.TotalDriveTime,
		TotalStalls:     c.TotalStalls - start.TotalStalls,
		TotalLugs:       c.TotalLugs - start.TotalLugs,
		TotalLugTime:    c.TotalLugTime - start.TotalLugTime,
		TotalUpshifts:   c.TotalUpshifts - start.TotalUpshifts,
		UpshiftsGood:    c.UpshiftsGood - start.UpshiftsGood,
		UpshiftsOK:      c.UpshiftsOK - start.UpshiftsOK,
		UpshiftsPoor:    c.UpshiftsPoor - start.UpshiftsPoor,
		TotalDownshifts: c.TotalDownshifts - start.TotalDownshifts,
		DownshiftsGood:  c.DownshiftsGood - start.DownshiftsGood,
		DownshiftsOK:    c.DownshiftsOK - start.DownshiftsOK,
		DownshiftsPoor:  c.DownshiftsPoor - start.DownshiftsPoor,
		TotalLaunches:   c.TotalLaunches - start.TotalLaunches,
		LaunchesGood:    c.LaunchesGood - start.LaunchesGood,
		LaunchesOK:      c.LaunchesOK - start.LaunchesOK,
		LaunchesPoor:    c.LaunchesPoor - start.LaunchesPoor,
		LaunchesStalled: c.LaunchesStalled - start.LaunchesStalled,
	}
}

// snapshot returns a value copy with the per-gear maps detached, safe to
// keep immutable while the live maps keep growing.
func (c Counters) snapshot() Counters {
	cp := c
	cp.GearShiftCounts = nil
	cp.GearSmoothnessSums = nil
	return cp
}

// Stats is the full persisted state: cumulative counters plus the bounded
// per-session history.
type Stats struct {
	Counters
	SessionHistory []SessionEntry `json:"session_history"`
}

// DefaultStats returns a Stats with every counter zeroed and the per-gear
// maps initialized for gears 1-6.
func DefaultStats() *Stats {
	s := &Stats{}
	s.GearShiftCounts = make(map[int]int64, 6)
	s.GearSmoothnessSums = make(map[int]float64, 6)
	for g := 1; g <= 6; g++ {
		s.GearShiftCounts[g] = 0
		s.GearSmoothnessSums[g] = 0
	}
	return s
}

// DecodeStats unmarshals a persisted stats blob on top of the defaults so
// fields added after the blob was written keep their zero defaults instead
// of erasing old data. Missing or corrupt blobs fall back to defaults;
// loading never fails.
func DecodeStats(data []byte) *Stats {
	stats := DefaultStats()
	if len(data) == 0 {
		return stats
	}
	if err := json.Unmarshal(data, stats); err != nil {
		monitoring.Logf("drivestats: corrupt stats blob, starting from defaults: %v", err)
		return DefaultStats()
	}
	// Maps may arrive nil from an older blob
	if stats.GearShiftCounts == nil {
		stats.GearShiftCounts = DefaultStats().GearShiftCounts
	}
	if stats.GearSmoothnessSums == nil {
		stats.GearSmoothnessSums = DefaultStats().GearSmoothnessSums
	}
	return stats
}

// Encode marshals the stats for persistence.
func (s *Stats) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	return data, nil
}

// GearAverageSmoothness returns the mean smoothness metric of all shifts
// into the given gear, or 0 if none were recorded.
func (s *Stats) GearAverageSmoothness(gear int) float64 {
	n := s.GearShiftCounts[gear]
	if n == 0 {
		return 0
	}
	return s.GearSmoothnessSums[gear] / float64(n)
}
