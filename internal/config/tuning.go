package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig holds every detection and grading threshold used by the
// drive stats tracker. All fields are optional: values omitted from the
// JSON file fall back to the canonical defaults baked into the Get*
// accessors, so partial configs are safe.
//
// Defaults are calibrated for a 2024 Subaru BRZ 6MT and documented on each
// accessor.
type TuningConfig struct {
	// Detection params
	StallRPM       *float64 `json:"stall_rpm,omitempty"`
	LugRPM         *float64 `json:"lug_rpm,omitempty"`
	LugLoad        *float64 `json:"lug_load,omitempty"`
	LugMinSpeed    *float64 `json:"lug_min_speed,omitempty"`
	LaunchSpeed    *float64 `json:"launch_speed,omitempty"`
	LaunchComplete *float64 `json:"launch_complete_speed,omitempty"`

	// Grading params
	GoodShiftSmoothness  *float64 `json:"good_shift_smoothness,omitempty"`
	OKShiftSmoothness    *float64 `json:"ok_shift_smoothness,omitempty"`
	GoodRevMatchRPM      *float64 `json:"good_rev_match_rpm,omitempty"`
	OKRevMatchRPM        *float64 `json:"ok_rev_match_rpm,omitempty"`
	GoodLaunchSmoothness *float64 `json:"good_launch_smoothness,omitempty"`
	OKLaunchSmoothness   *float64 `json:"ok_launch_smoothness,omitempty"`

	// Shift advisor params
	EconomyThrottle         *float64 `json:"economy_throttle,omitempty"`
	PerformanceThrottle     *float64 `json:"performance_throttle,omitempty"`
	EconomyUpshiftRPM       *float64 `json:"economy_upshift_rpm,omitempty"`
	EconomyDownshiftRPM     *float64 `json:"economy_downshift_rpm,omitempty"`
	PerformanceUpshiftRPM   *float64 `json:"performance_upshift_rpm,omitempty"`
	PerformanceDownshiftRPM *float64 `json:"performance_downshift_rpm,omitempty"`

	// Timing params (control-loop ticks, 10ms each)
	LiveSaveTicks     *int    `json:"live_save_ticks,omitempty"`
	FullSaveTicks     *int    `json:"full_save_ticks,omitempty"`
	ShiftWindowTicks  *int    `json:"shift_window_ticks,omitempty"`
	ShiftDisplayTicks *int    `json:"shift_display_ticks,omitempty"`
	MinSessionLength  *string `json:"min_session_length,omitempty"` // duration string like "30s"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON retain their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*float64{
		"stall_rpm":              c.StallRPM,
		"lug_rpm":                c.LugRPM,
		"good_shift_smoothness":  c.GoodShiftSmoothness,
		"ok_shift_smoothness":    c.OKShiftSmoothness,
		"good_rev_match_rpm":     c.GoodRevMatchRPM,
		"ok_rev_match_rpm":       c.OKRevMatchRPM,
		"good_launch_smoothness": c.GoodLaunchSmoothness,
		"ok_launch_smoothness":   c.OKLaunchSmoothness,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	if c.LugLoad != nil && (*c.LugLoad < 0 || *c.LugLoad > 1) {
		return fmt.Errorf("lug_load must be between 0 and 1, got %f", *c.LugLoad)
	}
	if c.EconomyThrottle != nil && (*c.EconomyThrottle < 0 || *c.EconomyThrottle > 1) {
		return fmt.Errorf("economy_throttle must be between 0 and 1, got %f", *c.EconomyThrottle)
	}
	if c.PerformanceThrottle != nil && (*c.PerformanceThrottle < 0 || *c.PerformanceThrottle > 1) {
		return fmt.Errorf("performance_throttle must be between 0 and 1, got %f", *c.PerformanceThrottle)
	}

	// Grading bands must stay ascending or the two-tier rules degenerate.
	if c.GetGoodShiftSmoothness() >= c.GetOKShiftSmoothness() {
		return fmt.Errorf("good_shift_smoothness (%f) must be below ok_shift_smoothness (%f)",
			c.GetGoodShiftSmoothness(), c.GetOKShiftSmoothness())
	}
	if c.GetGoodRevMatchRPM() >= c.GetOKRevMatchRPM() {
		return fmt.Errorf("good_rev_match_rpm (%f) must be below ok_rev_match_rpm (%f)",
			c.GetGoodRevMatchRPM(), c.GetOKRevMatchRPM())
	}
	if c.GetGoodLaunchSmoothness() >= c.GetOKLaunchSmoothness() {
		return fmt.Errorf("good_launch_smoothness (%f) must be below ok_launch_smoothness (%f)",
			c.GetGoodLaunchSmoothness(), c.GetOKLaunchSmoothness())
	}

	for name, v := range map[string]*int{
		"live_save_ticks":     c.LiveSaveTicks,
		"full_save_ticks":     c.FullSaveTicks,
		"shift_window_ticks":  c.ShiftWindowTicks,
		"shift_display_ticks": c.ShiftDisplayTicks,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}

	if c.MinSessionLength != nil && *c.MinSessionLength != "" {
		if _, err := time.ParseDuration(*c.MinSessionLength); err != nil {
			return fmt.Errorf("invalid min_session_length '%s': %w", *c.MinSessionLength, err)
		}
	}

	return nil
}

// GetStallRPM returns the stall detection threshold (default 300 rpm).
// A downward crossing of this threshold while not in neutral is a stall.
func (c *TuningConfig) GetStallRPM() float64 {
	if c.StallRPM == nil {
		return 300
	}
	return *c.StallRPM
}

// GetLugRPM returns the lugging rpm ceiling (default 1200 rpm). The BRZ
// lugs below ~1200 under meaningful load.
func (c *TuningConfig) GetLugRPM() float64 {
	if c.LugRPM == nil {
		return 1200
	}
	return *c.LugRPM
}

// GetLugLoad returns the throttle fraction that counts as load for lug
// detection (default 0.25 - real load, not just maintaining speed).
func (c *TuningConfig) GetLugLoad() float64 {
	if c.LugLoad == nil {
		return 0.25
	}
	return *c.LugLoad
}

// GetLugMinSpeed returns the road speed floor for lug detection
// (default 5.0 m/s, ignores very low speed creeping).
func (c *TuningConfig) GetLugMinSpeed() float64 {
	if c.LugMinSpeed == nil {
		return 5.0
	}
	return *c.LugMinSpeed
}

// GetLaunchSpeed returns the road speed below which a clutch press opens a
// launch (default 0.5 m/s).
func (c *TuningConfig) GetLaunchSpeed() float64 {
	if c.LaunchSpeed == nil {
		return 0.5
	}
	return *c.LaunchSpeed
}

// GetLaunchComplete returns the road speed at which an open launch is
// graded (default 5.0 m/s).
func (c *TuningConfig) GetLaunchComplete() float64 {
	if c.LaunchComplete == nil {
		return 5.0
	}
	return *c.LaunchComplete
}

// GetGoodShiftSmoothness returns the accel std-dev bound for a good shift
// (default 0.5 m/s²).
func (c *TuningConfig) GetGoodShiftSmoothness() float64 {
	if c.GoodShiftSmoothness == nil {
		return 0.5
	}
	return *c.GoodShiftSmoothness
}

// GetOKShiftSmoothness returns the accel std-dev bound for an acceptable
// shift (default 1.0 m/s²).
func (c *TuningConfig) GetOKShiftSmoothness() float64 {
	if c.OKShiftSmoothness == nil {
		return 1.0
	}
	return *c.OKShiftSmoothness
}

// GetGoodRevMatchRPM returns the rev-match error bound for a good
// downshift (default 300 rpm).
func (c *TuningConfig) GetGoodRevMatchRPM() float64 {
	if c.GoodRevMatchRPM == nil {
		return 300
	}
	return *c.GoodRevMatchRPM
}

// GetOKRevMatchRPM returns the rev-match error bound for an acceptable
// downshift (default 500 rpm).
func (c *TuningConfig) GetOKRevMatchRPM() float64 {
	if c.OKRevMatchRPM == nil {
		return 500
	}
	return *c.OKRevMatchRPM
}

// GetGoodLaunchSmoothness returns the peak accel std-dev bound for a good
// launch (default 1.5 m/s²; launches naturally vary more than shifts).
func (c *TuningConfig) GetGoodLaunchSmoothness() float64 {
	if c.GoodLaunchSmoothness == nil {
		return 1.5
	}
	return *c.GoodLaunchSmoothness
}

// GetOKLaunchSmoothness returns the peak accel std-dev bound for an
// acceptable launch (default 2.5 m/s²).
func (c *TuningConfig) GetOKLaunchSmoothness() float64 {
	if c.OKLaunchSmoothness == nil {
		return 2.5
	}
	return *c.OKLaunchSmoothness
}

// GetEconomyThrottle returns the throttle fraction below which the advisor
// runs in economy mode (default 0.3).
func (c *TuningConfig) GetEconomyThrottle() float64 {
	if c.EconomyThrottle == nil {
		return 0.3
	}
	return *c.EconomyThrottle
}

// GetPerformanceThrottle returns the throttle fraction above which the
// advisor runs in performance mode (default 0.7).
func (c *TuningConfig) GetPerformanceThrottle() float64 {
	if c.PerformanceThrottle == nil {
		return 0.7
	}
	return *c.PerformanceThrottle
}

// GetEconomyUpshiftRPM returns the economy-mode upshift point
// (default 3200 rpm).
func (c *TuningConfig) GetEconomyUpshiftRPM() float64 {
	if c.EconomyUpshiftRPM == nil {
		return 3200
	}
	return *c.EconomyUpshiftRPM
}

// GetEconomyDownshiftRPM returns the economy-mode downshift point used to
// avoid lugging (default 1500 rpm).
func (c *TuningConfig) GetEconomyDownshiftRPM() float64 {
	if c.EconomyDownshiftRPM == nil {
		return 1500
	}
	return *c.EconomyDownshiftRPM
}

// GetPerformanceUpshiftRPM returns the performance-mode upshift point near
// redline (default 6500 rpm).
func (c *TuningConfig) GetPerformanceUpshiftRPM() float64 {
	if c.PerformanceUpshiftRPM == nil {
		return 6500
	}
	return *c.PerformanceUpshiftRPM
}

// GetPerformanceDownshiftRPM returns the performance-mode downshift point
// that keeps the engine in the power band (default 4000 rpm).
func (c *TuningConfig) GetPerformanceDownshiftRPM() float64 {
	if c.PerformanceDownshiftRPM == nil {
		return 4000
	}
	return *c.PerformanceDownshiftRPM
}

// GetLiveSaveTicks returns the live-stats flush interval in ticks
// (default 500 = 5s).
func (c *TuningConfig) GetLiveSaveTicks() int {
	if c.LiveSaveTicks == nil {
		return 500
	}
	return *c.LiveSaveTicks
}

// GetFullSaveTicks returns the full-state flush interval in ticks
// (default 1500 = 15s).
func (c *TuningConfig) GetFullSaveTicks() int {
	if c.FullSaveTicks == nil {
		return 1500
	}
	return *c.FullSaveTicks
}

// GetShiftWindowTicks returns how long after a clutch release a gear
// change still counts as a shift (default 100 ticks = 1s). Bounds false
// positives from gear-prediction noise.
func (c *TuningConfig) GetShiftWindowTicks() int {
	if c.ShiftWindowTicks == nil {
		return 100
	}
	return *c.ShiftWindowTicks
}

// GetShiftDisplayTicks returns how long the last graded shift stays
// visible on the query surface (default 50 ticks = 0.5s).
func (c *TuningConfig) GetShiftDisplayTicks() int {
	if c.ShiftDisplayTicks == nil {
		return 50
	}
	return *c.ShiftDisplayTicks
}

// GetMinSessionLength returns the minimum duration for a session to be
// recorded in history (default 30s, suppresses accidental starts).
func (c *TuningConfig) GetMinSessionLength() time.Duration {
	if c.MinSessionLength == nil || *c.MinSessionLength == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.MinSessionLength)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}
