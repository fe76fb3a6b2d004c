package units

import "math"

// Engine-speed conversions. The tracker works in rpm throughout; these
// helpers exist for tooling that deals in angular velocity.

// RPMToRadPerSec converts engine speed from rpm to radians per second.
func RPMToRadPerSec(rpm float64) float64 {
	return rpm * 2 * math.Pi / 60
}

// RadPerSecToRPM converts angular velocity in radians per second to rpm.
func RadPerSecToRPM(radps float64) float64 {
	return radps * 60 / (2 * math.Pi)
}
