// Package drivestats detects and grades manual-transmission driving
// events (stalls, lugging, launches, shifts) from a fixed-cadence
// telemetry stream and keeps the cumulative and per-session counters
// durable across process kills.
package drivestats

import "time"

// TickPeriod is the control-loop cadence. Update is called exactly once
// per tick; all interval accounting is tick-count based so behavior stays
// deterministic under variable wall-clock timing.
const TickPeriod = 10 * time.Millisecond

// TickSeconds is TickPeriod expressed in seconds.
const TickSeconds = 0.01

// Sample is one tick of decoded telemetry. Producing these from the
// vehicle bus is the caller's job; the tracker never rejects a sample,
// out-of-range values simply fail the detector guard conditions.
type Sample struct {
	EngineRPM float64 // engine speed, >= 0
	Gear      int     // 0 = neutral/unknown, 1..6
	Speed     float64 // road speed in m/s, >= 0
	Accel     float64 // longitudinal acceleration in m/s²
	Clutch    bool    // clutch pedal pressed
	Neutral   bool    // gearbox in neutral
	Throttle  float64 // throttle position, 0.0-1.0
}

// InGear reports whether power is being transmitted: not in neutral and
// clutch released.
func (s Sample) InGear() bool {
	return !s.Neutral && !s.Clutch
}
