// Command gen-drivelog generates a synthetic telemetry log for testing
// replay. The drive is deterministic: a launch, upshifts through third,
// a lugging stretch, a rev-matched downshift, and a stall at the end.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/driveline-data/driveline.report/internal/gearbox"
)

type logWriter struct {
	w      *bufio.Writer
	geo    gearbox.Geometry
	rng    *rand.Rand
	jitter float64
	lines  int
}

func (lw *logWriter) emit(n int, rpm float64, gear int, speed, accel float64, clutch, neutral bool, throttle float64) {
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	for i := 0; i < n; i++ {
		// Jitter stays well inside the good-shift smoothness band so it
		// adds texture without changing any grade.
		a := accel + lw.jitter*(lw.rng.Float64()*2-1)
		fmt.Fprintf(lw.w, "%.1f,%d,%.2f,%.2f,%d,%d,%.2f\n",
			rpm, gear, speed, a, b(clutch), b(neutral), throttle)
		lw.lines++
	}
}

// accelerate ramps road speed linearly in gear, deriving rpm from the
// drivetrain model so gear prediction agrees with the log.
func (lw *logWriter) accelerate(gear int, from, to, accel, throttle float64) {
	speed := from
	for speed < to {
		speed += accel * 0.01
		lw.emit(1, lw.geo.ExpectedEngineSpeed(speed, gear), gear, speed, accel, false, false, throttle)
	}
}

func main() {
	output := flag.String("o", "sample_drive.csv", "output path")
	seed := flag.Int64("seed", 1, "jitter seed (same seed, same log)")
	jitter := flag.Float64("jitter", 0.05, "acceleration noise amplitude in m/s²")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	lw := &logWriter{
		w:      bufio.NewWriter(f),
		geo:    gearbox.DefaultGeometry(),
		rng:    rand.New(rand.NewSource(*seed)),
		jitter: *jitter,
	}
	fmt.Fprintln(lw.w, "# rpm,gear,speed,accel,clutch,neutral,throttle")

	// Idle in neutral.
	lw.emit(200, 850, 0, 0, 0, false, true, 0)

	// Launch: stopped with the clutch in, then a smooth pull away.
	lw.emit(100, 1500, 0, 0, 0, true, false, 0.2)
	lw.accelerate(1, 0, 6, 2.0, 0.4)

	// Pull first gear to ~3200 rpm, then shift to second.
	v1 := lw.geo.ExpectedSpeed(3200, 1)
	lw.accelerate(1, 6, v1, 1.5, 0.4)
	lw.emit(30, 2500, 0, v1, 0, true, false, 0)
	lw.emit(1, lw.geo.ExpectedEngineSpeed(v1, 2), 2, v1, 0, false, false, 0.3)

	// Second to ~3200, shift to third.
	v2 := lw.geo.ExpectedSpeed(3200, 2)
	lw.accelerate(2, v1, v2, 1.5, 0.4)
	lw.emit(30, 2300, 0, v2, 0, true, false, 0)
	lw.emit(1, lw.geo.ExpectedEngineSpeed(v2, 3), 3, v2, 0, false, false, 0.3)

	// Lug third gear: low rpm under load.
	vLug := lw.geo.ExpectedSpeed(1100, 3)
	lw.emit(200, 1100, 3, vLug, 0.1, false, false, 0.5)

	// Recover, cruise, then a rev-matched downshift to second.
	vCruise := lw.geo.ExpectedSpeed(2500, 3)
	lw.accelerate(3, vLug, vCruise, 1.0, 0.4)
	lw.emit(300, 2500, 3, vCruise, 0, false, false, 0.15)
	lw.emit(30, 2800, 0, vCruise, 0, true, false, 0)
	lw.emit(1, lw.geo.ExpectedEngineSpeed(vCruise, 2), 2, vCruise, 0, false, false, 0.2)

	// Coast down to a stop and stall it in gear.
	speed := vCruise
	for speed > 1 {
		speed -= 1.5 * 0.01
		lw.emit(1, lw.geo.ExpectedEngineSpeed(speed, 2), 2, speed, -1.5, false, false, 0)
	}
	lw.emit(50, 600, 2, 0.5, -0.5, false, false, 0)
	lw.emit(20, 150, 2, 0.2, 0, false, false, 0)

	if err := lw.w.Flush(); err != nil {
		log.Fatalf("failed to flush %s: %v", *output, err)
	}
	log.Printf("wrote %d samples (%.1fs of driving) to %s", lw.lines, float64(lw.lines)*0.01, *output)
}
