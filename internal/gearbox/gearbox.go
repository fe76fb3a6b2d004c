// Package gearbox models the drivetrain of one reference vehicle: the
// mapping between road speed and engine speed per gear, gear prediction
// from that mapping, and shift suggestions derived from it.
package gearbox

import (
	"math"

	"github.com/driveline-data/driveline.report/internal/config"
)

// Constants for gear prediction
const (
	// MinRunningRPM is the engine speed below which prediction and
	// suggestions are skipped (engine off or idling)
	MinRunningRPM = 500
	// MinRollingSpeed is the road speed in m/s below which prediction is skipped
	MinRollingSpeed = 0.5
	// MaxPredictionErrorRPM is the largest rpm error still accepted as a
	// confident gear match; beyond it the gear is reported unknown
	MaxPredictionErrorRPM = 500
	// LowGearSlipDiscount weights the prediction error of gears 1-2 to
	// compensate for clutch slip during acceleration
	LowGearSlipDiscount = 0.9
	// TopGear is the highest forward gear of the reference vehicle
	TopGear = 6
)

// Geometry describes the fixed drivetrain configuration used by the
// kinematic model.
type Geometry struct {
	GearRatios        map[int]float64
	FinalDrive        float64
	TireCircumference float64 // meters
}

// DefaultGeometry returns the drivetrain of a 2024 Subaru BRZ 6MT Limited.
// Tire circumference is for the stock 215/40R18 fitment:
// diameter = 457.2mm + 2*(215mm*0.40) = 629.2mm, circumference ≈ 1.977m.
func DefaultGeometry() Geometry {
	return Geometry{
		GearRatios: map[int]float64{
			1: 3.626,
			2: 2.188,
			3: 1.541,
			4: 1.213,
			5: 1.000,
			6: 0.767,
		},
		FinalDrive:        4.10,
		TireCircumference: 1.977,
	}
}

// ExpectedEngineSpeed returns the engine speed in rpm implied by a road
// speed (m/s) in a given gear. Returns 0 for an unknown gear or
// non-positive speed.
func (g Geometry) ExpectedEngineSpeed(speedMS float64, gear int) float64 {
	ratio, ok := g.GearRatios[gear]
	if !ok || speedMS <= 0 {
		return 0
	}
	// rpm = (speed * final_drive * gear_ratio * 60) / tire_circumference
	return (speedMS * g.FinalDrive * ratio * 60) / g.TireCircumference
}

// ExpectedSpeed returns the road speed in m/s implied by an engine speed
// (rpm) in a given gear. Algebraic inverse of ExpectedEngineSpeed; returns
// 0 for an unknown gear or non-positive rpm.
func (g Geometry) ExpectedSpeed(rpm float64, gear int) float64 {
	ratio, ok := g.GearRatios[gear]
	if !ok || rpm <= 0 {
		return 0
	}
	return (rpm * g.TireCircumference) / (g.FinalDrive * ratio * 60)
}

// RevMatchTarget returns the engine speed to aim for when downshifting
// into targetGear at the current road speed. 0 for an unknown gear.
func (g Geometry) RevMatchTarget(targetGear int, speedMS float64) float64 {
	if _, ok := g.GearRatios[targetGear]; !ok {
		return 0
	}
	return g.ExpectedEngineSpeed(speedMS, targetGear)
}

// PredictGear infers the current gear from engine speed and road speed by
// picking the gear whose expected rpm is closest to the observed rpm.
// Returns 0 (unknown) when stopped, idling, or when even the best match
// exceeds MaxPredictionErrorRPM (coasting, clutch fully slipping).
func (g Geometry) PredictGear(rpm, speedMS float64) int {
	if rpm < MinRunningRPM || speedMS < MinRollingSpeed {
		return 0
	}

	bestGear := 0
	minError := math.Inf(1)
	for gear := 1; gear <= TopGear; gear++ {
		err := math.Abs(rpm - g.ExpectedEngineSpeed(speedMS, gear))
		if gear <= 2 {
			err *= LowGearSlipDiscount
		}
		if err < minError {
			minError = err
			bestGear = gear
		}
	}

	if minError < MaxPredictionErrorRPM {
		return bestGear
	}
	return 0
}

// Action is the advisor's recommendation for the current tick.
type Action string

const (
	ActionHold      Action = "hold"
	ActionUpshift   Action = "upshift"
	ActionDownshift Action = "downshift"
)

// Suggestion reasons
const (
	ReasonEconomy       = "economy"
	ReasonLugPrevention = "lug_prevention"
	ReasonRedline       = "redline"
	ReasonPowerband     = "powerband"
)

// Suggestion is a shift recommendation with the gear and engine speed the
// driver should land on.
type Suggestion struct {
	Action     Action `json:"action"`
	Reason     string `json:"reason,omitempty"`
	TargetGear int    `json:"target_gear,omitempty"`
	TargetRPM  int    `json:"target_rpm,omitempty"`
}

// SuggestShift recommends an upshift or downshift from throttle and engine
// speed heuristics. Light throttle runs the economy bands, heavy throttle
// the performance bands; in between the advisor holds. Target rpm is the
// model round-trip of the current operating point into the target gear.
func (g Geometry) SuggestShift(rpm float64, gear int, throttle float64, cfg *config.TuningConfig) Suggestion {
	if gear == 0 || rpm < MinRunningRPM {
		return Suggestion{Action: ActionHold}
	}

	// Economy mode (light throttle / cruising)
	if throttle < cfg.GetEconomyThrottle() {
		if rpm > cfg.GetEconomyUpshiftRPM() && gear < TopGear {
			return g.suggestion(ActionUpshift, ReasonEconomy, rpm, gear, gear+1)
		}
		if rpm < cfg.GetEconomyDownshiftRPM() && gear > 1 {
			return g.suggestion(ActionDownshift, ReasonLugPrevention, rpm, gear, gear-1)
		}
	}

	// Performance mode (heavy throttle)
	if throttle > cfg.GetPerformanceThrottle() {
		if rpm > cfg.GetPerformanceUpshiftRPM() && gear < TopGear {
			return g.suggestion(ActionUpshift, ReasonRedline, rpm, gear, gear+1)
		}
		if rpm < cfg.GetPerformanceDownshiftRPM() && gear > 1 {
			return g.suggestion(ActionDownshift, ReasonPowerband, rpm, gear, gear-1)
		}
	}

	return Suggestion{Action: ActionHold}
}

func (g Geometry) suggestion(action Action, reason string, rpm float64, fromGear, toGear int) Suggestion {
	return Suggestion{
		Action:     action,
		Reason:     reason,
		TargetGear: toGear,
		TargetRPM:  int(g.ExpectedEngineSpeed(g.ExpectedSpeed(rpm, fromGear), toGear)),
	}
}
