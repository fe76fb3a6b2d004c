package drivestats

import (
	"errors"
	"math"
	"time"

	"github.com/driveline-data/driveline.report/internal/blobstore"
	"github.com/driveline-data/driveline.report/internal/config"
	"github.com/driveline-data/driveline.report/internal/gearbox"
	"github.com/driveline-data/driveline.report/internal/monitoring"
)

// Blob names in the external store.
const (
	// BlobStats holds the cumulative counters and session history
	BlobStats = "drive_stats"
	// BlobLiveStats holds the live snapshot for the display surface
	BlobLiveStats = "drive_live_stats"
	// BlobLastSession holds the most recently finalized session entry
	BlobLastSession = "drive_last_session"
)

// Flush reasons, logged with each out-of-band persist.
const (
	flushReasonStall    = "stall"
	flushReasonPeriodic = "periodic"
	flushReasonFinalize = "finalize"
)

// Tracker consumes one telemetry sample per 10ms tick and classifies
// driver behavior: stalls, lugging, launch quality, and shift quality. It
// exclusively owns the cumulative counters, the start-of-session snapshot,
// the rolling acceleration window, and all transient sub-state. It is not
// safe for concurrent use: exactly one caller drives it, and the persisted
// blobs are the only data crossing the process boundary.
type Tracker struct {
	cfg   *config.TuningConfig
	geo   gearbox.Geometry
	store blobstore.Store

	stats *Stats

	// Immutable snapshot of the counters at construction; the current
	// session view is always cumulative minus this.
	sessionStart Counters

	sessionID  string
	sessionIdx int // index of this drive's in-progress history entry, -1 until first full flush
	startTime  time.Time

	// Drive time already accumulated by previous drives.
	priorDriveTime float64

	tick int64
	prev Sample

	window *AccelWindow

	// Lugging state
	lugging      bool
	lugStartTick int64

	// Launch state
	launching            bool
	launchClutchReleased bool
	launchPeakSmoothness float64

	// Shift validation state: a real shift requires clutch press -> gear
	// change -> clutch release.
	clutchDown        bool
	gearBeforeClutch  int
	clutchReleaseTick int64

	// Last graded shift, exposed for a bounded display window.
	lastShiftSmoothness float64
	lastShiftGrade      Grade
	lastShiftTick       int64

	// Periodic flush countdowns, reset on flush.
	liveCountdown int
	fullCountdown int
}

// NewTracker loads the cumulative stats from the store (missing or
// corrupt blobs fall back to zero defaults), bumps the drive count, and
// snapshots the counters for the current-session view. One tracker is
// constructed per process lifetime.
func NewTracker(cfg *config.TuningConfig, geo gearbox.Geometry, store blobstore.Store) *Tracker {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}

	data, err := store.Get(BlobStats)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		monitoring.Logf("drivestats: failed to load stats blob, starting from defaults: %v", err)
	}
	stats := DecodeStats(data)

	// This is a new drive; bump the count once.
	stats.TotalDrives++

	return &Tracker{
		cfg:            cfg,
		geo:            geo,
		store:          store,
		stats:          stats,
		sessionStart:   stats.Counters.snapshot(),
		sessionID:      NewSessionID(),
		sessionIdx:     -1,
		startTime:      time.Now(),
		priorDriveTime: stats.TotalDriveTime,
		window:         NewAccelWindow(WindowCapacity),
		liveCountdown:  cfg.GetLiveSaveTicks(),
		fullCountdown:  cfg.GetFullSaveTicks(),
	}
}

// Update consumes one telemetry sample. Called exactly once per tick by
// the owning control loop; each call advances the tracker by TickPeriod.
func (t *Tracker) Update(s Sample) {
	t.tick++
	t.window.Push(s.Accel)

	t.trackClutch(s)
	t.detectStall(s)
	t.detectLug(s)
	t.detectLaunch(s)
	t.detectShift(s)

	t.prev = s

	t.liveCountdown--
	if t.liveCountdown <= 0 {
		t.liveCountdown = t.cfg.GetLiveSaveTicks()
		t.flushLive()
	}

	t.fullCountdown--
	if t.fullCountdown <= 0 {
		t.fullCountdown = t.cfg.GetFullSaveTicks()
		t.flushFull(flushReasonPeriodic)
	}
}

// trackClutch edge-detects the clutch pedal. On press it records the gear
// held, on release it marks the tick that opens the shift-grading window.
func (t *Tracker) trackClutch(s Sample) {
	if s.Clutch && !t.clutchDown {
		t.clutchDown = true
		t.gearBeforeClutch = t.prev.Gear
	} else if !s.Clutch && t.clutchDown {
		t.clutchDown = false
		t.clutchReleaseTick = t.tick
	}
}

// detectStall edge-detects the engine speed crossing below the stall
// threshold while not in neutral. A stall force-terminates an open launch
// as "stalled" and flushes immediately so a process kill cannot lose it.
func (t *Tracker) detectStall(s Sample) {
	if s.EngineRPM >= t.cfg.GetStallRPM() || t.prev.EngineRPM < t.cfg.GetStallRPM() {
		return
	}
	if s.Neutral {
		return
	}

	t.stats.TotalStalls++
	monitoring.Eventf("stall", "rpm=%.0f speed=%.1f gear=%d", s.EngineRPM, s.Speed, s.Gear)

	if t.launching {
		t.stats.LaunchesStalled++
		t.stats.TotalLaunches++
		t.launching = false
	}

	t.flushFull(flushReasonStall)
}

// detectLug tracks the level-triggered lugging condition: in gear, engine
// speed below threshold, throttle above the load threshold, road speed
// above the creep floor. Only closed intervals contribute duration; an
// interval still open at process end is dropped.
func (t *Tracker) detectLug(s Sample) {
	luggingNow := s.InGear() &&
		s.EngineRPM < t.cfg.GetLugRPM() &&
		s.Throttle > t.cfg.GetLugLoad() &&
		s.Speed > t.cfg.GetLugMinSpeed()

	if luggingNow && !t.lugging {
		t.lugging = true
		t.lugStartTick = t.tick
		t.stats.TotalLugs++
	} else if !luggingNow && t.lugging {
		t.lugging = false
		duration := float64(t.tick-t.lugStartTick) * TickSeconds
		t.stats.TotalLugTime += duration
		monitoring.Eventf("lug", "duration=%.1fs", duration)
	}
}

// detectLaunch opens a launch when the car is stopped with the clutch in,
// tracks the peak smoothness metric while it is open, and grades it once
// road speed reaches the completion threshold with the clutch released.
// A stall while launching bypasses grading (see detectStall).
func (t *Tracker) detectLaunch(s Sample) {
	if s.Speed < t.cfg.GetLaunchSpeed() && s.Clutch && !t.launching {
		t.launching = true
		t.launchPeakSmoothness = 0
		t.launchClutchReleased = false
	}

	if !t.launching {
		return
	}

	if !s.Clutch {
		t.launchClutchReleased = true
	}
	t.launchPeakSmoothness = math.Max(t.launchPeakSmoothness, t.window.Smoothness())

	if s.Speed >= t.cfg.GetLaunchComplete() && t.launchClutchReleased {
		var grade Grade
		switch {
		case t.launchPeakSmoothness < t.cfg.GetGoodLaunchSmoothness():
			grade = GradeGood
			t.stats.LaunchesGood++
		case t.launchPeakSmoothness < t.cfg.GetOKLaunchSmoothness():
			grade = GradeOK
			t.stats.LaunchesOK++
		default:
			grade = GradePoor
			t.stats.LaunchesPoor++
		}
		t.stats.TotalLaunches++
		t.launching = false
		monitoring.Eventf("launch", "peak_smoothness=%.2f grade=%s", t.launchPeakSmoothness, grade)
	}
}

// detectShift recognizes a completed gear change: the gear differs from
// the one recorded at clutch press, the clutch is released, and no more
// than the grading window has elapsed since release. The window bound
// keeps transient gear-prediction noise from registering as shifts.
func (t *Tracker) detectShift(s Sample) {
	if s.Gear == 0 || s.Neutral {
		return
	}
	if t.tick-t.clutchReleaseTick > int64(t.cfg.GetShiftWindowTicks()) {
		return
	}
	if s.Gear == t.gearBeforeClutch || t.gearBeforeClutch <= 0 || s.Clutch {
		return
	}

	smoothness := t.window.Smoothness()

	t.stats.GearShiftCounts[s.Gear]++
	t.stats.GearSmoothnessSums[s.Gear] += smoothness

	var grade Grade
	if s.Gear > t.gearBeforeClutch {
		grade = t.gradeUpshift(smoothness)
		monitoring.Eventf("upshift", "%d->%d smoothness=%.2f grade=%s speed=%.1f",
			t.gearBeforeClutch, s.Gear, smoothness, grade, t.prev.Speed)
	} else {
		// Rev-match target uses the previous road speed: it is more
		// reliable than deriving speed from rpm mid-shift.
		target := t.geo.ExpectedEngineSpeed(t.prev.Speed, s.Gear)
		revMatchErr := math.Abs(s.EngineRPM - target)
		grade = t.gradeDownshift(revMatchErr, smoothness)
		monitoring.Eventf("downshift", "%d->%d smoothness=%.2f rpm=%.0f target_rpm=%.0f rpm_err=%.0f grade=%s",
			t.gearBeforeClutch, s.Gear, smoothness, s.EngineRPM, target, revMatchErr, grade)
	}

	t.lastShiftSmoothness = smoothness
	t.lastShiftGrade = grade
	t.lastShiftTick = t.tick

	// Reset the markers so the same shift is never counted twice.
	t.clutchReleaseTick = 0
	t.gearBeforeClutch = 0
}

// gradeUpshift grades purely by the smoothness metric.
func (t *Tracker) gradeUpshift(smoothness float64) Grade {
	t.stats.TotalUpshifts++
	switch {
	case smoothness < t.cfg.GetGoodShiftSmoothness():
		t.stats.UpshiftsGood++
		return GradeGood
	case smoothness < t.cfg.GetOKShiftSmoothness():
		t.stats.UpshiftsOK++
		return GradeOK
	default:
		t.stats.UpshiftsPoor++
		return GradePoor
	}
}

// gradeDownshift grades primarily by rev-match error with smoothness as a
// secondary signal: good needs both a tight rev-match and a smooth
// engagement; ok accepts a looser rev-match, or a tight one that came in
// bumpy; anything else is poor.
func (t *Tracker) gradeDownshift(revMatchErr, smoothness float64) Grade {
	t.stats.TotalDownshifts++
	goodErr := t.cfg.GetGoodRevMatchRPM()
	switch {
	case revMatchErr < goodErr && smoothness < t.cfg.GetGoodShiftSmoothness():
		t.stats.DownshiftsGood++
		return GradeGood
	case revMatchErr < t.cfg.GetOKRevMatchRPM() ||
		(revMatchErr < goodErr && smoothness < t.cfg.GetOKShiftSmoothness()):
		t.stats.DownshiftsOK++
		return GradeOK
	default:
		t.stats.DownshiftsPoor++
		return GradePoor
	}
}

// CurrentSession returns the counter deltas for this drive: cumulative
// values minus the start-of-session snapshot. Zero at tick 0 by
// construction.
func (t *Tracker) CurrentSession() Counters {
	return t.stats.Counters.Delta(t.sessionStart)
}

// LastShiftInfo returns the smoothness value and grade of the last graded
// shift, but only within the post-shift display window; afterwards it
// reverts to the neutral (0, GradeNone).
func (t *Tracker) LastShiftInfo() (float64, Grade) {
	if t.lastShiftGrade != GradeNone && t.tick-t.lastShiftTick < int64(t.cfg.GetShiftDisplayTicks()) {
		return t.lastShiftSmoothness, t.lastShiftGrade
	}
	return 0, GradeNone
}

// Cumulative returns a copy of the all-time counters, per-gear maps
// included.
func (t *Tracker) Cumulative() Counters {
	c := t.stats.Counters.snapshot()
	c.GearShiftCounts = make(map[int]int64, len(t.stats.GearShiftCounts))
	for gear, n := range t.stats.GearShiftCounts {
		c.GearShiftCounts[gear] = n
	}
	c.GearSmoothnessSums = make(map[int]float64, len(t.stats.GearSmoothnessSums))
	for gear, sum := range t.stats.GearSmoothnessSums {
		c.GearSmoothnessSums[gear] = sum
	}
	return c
}

// History returns a copy of the bounded session history.
func (t *Tracker) History() []SessionEntry {
	out := make([]SessionEntry, len(t.stats.SessionHistory))
	copy(out, t.stats.SessionHistory)
	return out
}

// SessionID returns the identifier of the current drive.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// IsLugging reports whether a lug interval is currently open.
func (t *Tracker) IsLugging() bool { return t.lugging }

// IsLaunching reports whether a launch is currently open.
func (t *Tracker) IsLaunching() bool { return t.launching }

// sessionDuration is the elapsed drive time derived from the tick count.
func (t *Tracker) sessionDuration() float64 {
	return float64(t.tick) * TickSeconds
}

// flushFull persists the cumulative stats blob, updating total drive time
// and this drive's in-progress history entry first. Writes are
// fire-and-forget; a failure costs at most the interval since the last
// successful flush.
func (t *Tracker) flushFull(reason string) {
	t.stats.TotalDriveTime = t.priorDriveTime + t.sessionDuration()

	entry := sessionEntryFromDelta(t.sessionID, float64(t.startTime.Unix()), t.sessionDuration(), t.CurrentSession())
	t.stats.SessionHistory, t.sessionIdx = upsertSessionEntry(t.stats.SessionHistory, t.sessionIdx, entry)

	data, err := t.stats.Encode()
	if err != nil {
		monitoring.Logf("drivestats: full flush (%s) skipped: %v", reason, err)
		return
	}
	t.store.PutAsync(BlobStats, data)
}

// flushLive persists the live snapshot for the display surface.
func (t *Tracker) flushLive() {
	data, err := t.LiveStats().Encode()
	if err != nil {
		monitoring.Logf("drivestats: live flush skipped: %v", err)
		return
	}
	t.store.PutAsync(BlobLiveStats, data)
}

// FinalizeSession closes out the current drive: sessions shorter than the
// configured minimum are discarded (accidental or aborted starts);
// otherwise the final history entry and the last-session blob are
// persisted synchronously. Invoked by the external owner, typically on
// shutdown or when the vehicle goes offroad.
func (t *Tracker) FinalizeSession() error {
	duration := t.sessionDuration()
	t.stats.TotalDriveTime = t.priorDriveTime + duration

	if time.Duration(duration*float64(time.Second)) < t.cfg.GetMinSessionLength() {
		monitoring.Logf("drivestats: session %s too short to record (%.1fs)", t.sessionID, duration)
		t.stats.SessionHistory = removeSessionEntry(t.stats.SessionHistory, t.sessionIdx)
		t.sessionIdx = -1

		data, err := t.stats.Encode()
		if err != nil {
			return err
		}
		return t.store.Put(BlobStats, data)
	}

	entry := sessionEntryFromDelta(t.sessionID, float64(t.startTime.Unix()), duration, t.CurrentSession())
	t.stats.SessionHistory, t.sessionIdx = upsertSessionEntry(t.stats.SessionHistory, t.sessionIdx, entry)

	data, err := t.stats.Encode()
	if err != nil {
		return err
	}
	if err := t.store.Put(BlobStats, data); err != nil {
		return err
	}

	entryData, err := entry.Encode()
	if err != nil {
		return err
	}
	if err := t.store.Put(BlobLastSession, entryData); err != nil {
		return err
	}

	monitoring.Eventf(flushReasonFinalize, "session=%s duration=%.0fs", t.sessionID, duration)
	return nil
}
