package drivestats

import "gonum.org/v1/gonum/stat"

// Constants for the acceleration window
const (
	// WindowCapacity is 0.5s of samples at the 100Hz tick rate
	WindowCapacity = 50
	// MinSmoothnessSamples is the history needed before the metric is
	// meaningful; below it Smoothness reports 0 (best case) so early
	// ticks are never penalized
	MinSmoothnessSamples = 10
)

// AccelWindow is a fixed-capacity rolling window of the most recent
// longitudinal acceleration samples. Its population standard deviation is
// the smoothness metric used to grade shifts and launches: a windowed
// variability measure rather than single-sample jerk, because a shift is a
// multi-hundred-millisecond mechanical event and instantaneous jerk is too
// noisy to grade it.
type AccelWindow struct {
	samples []float64
	cap     int
}

// NewAccelWindow creates a window with the given capacity; capacity <= 0
// falls back to WindowCapacity.
func NewAccelWindow(capacity int) *AccelWindow {
	if capacity <= 0 {
		capacity = WindowCapacity
	}
	return &AccelWindow{
		samples: make([]float64, 0, capacity),
		cap:     capacity,
	}
}

// Push appends a sample, evicting the oldest when the window is full.
func (w *AccelWindow) Push(accel float64) {
	if len(w.samples) == w.cap {
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = accel
		return
	}
	w.samples = append(w.samples, accel)
}

// Len returns the number of buffered samples.
func (w *AccelWindow) Len() int {
	return len(w.samples)
}

// Smoothness returns the population standard deviation of the buffered
// acceleration samples. Lower is smoother. Returns 0 with fewer than
// MinSmoothnessSamples buffered.
func (w *AccelWindow) Smoothness() float64 {
	if len(w.samples) < MinSmoothnessSamples {
		return 0
	}
	return stat.PopStdDev(w.samples, nil)
}
