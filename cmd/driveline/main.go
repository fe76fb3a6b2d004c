// Command driveline runs the manual-transmission drive tracker: it replays
// a telemetry log at the control-loop cadence, feeds each sample to the
// tracker, and serves the query API over HTTP.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/driveline-data/driveline.report/internal/api"
	"github.com/driveline-data/driveline.report/internal/blobstore"
	"github.com/driveline-data/driveline.report/internal/config"
	"github.com/driveline-data/driveline.report/internal/drivestats"
	"github.com/driveline-data/driveline.report/internal/gearbox"
)

var (
	dbPath     = flag.String("db", "drive_stats.db", "Path to the stats database")
	listen     = flag.String("listen", ":8080", "Listen address for the query API")
	tuningPath = flag.String("tuning", "", "Optional tuning config JSON (defaults baked in)")
	logPath    = flag.String("log", "", "Telemetry log to replay (CSV: rpm,gear,speed,accel,clutch,neutral,throttle)")
	fast       = flag.Bool("fast", false, "Replay without sleeping between ticks")
)

// parseSample decodes one telemetry log line. Lines starting with '#' and
// blank lines are skipped by the caller.
func parseSample(line string) (drivestats.Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 7 {
		return drivestats.Sample{}, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}

	var s drivestats.Sample
	var err error

	if s.EngineRPM, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad rpm %q: %w", fields[0], err)
	}
	if s.Gear, err = strconv.Atoi(strings.TrimSpace(fields[1])); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad gear %q: %w", fields[1], err)
	}
	if s.Speed, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad speed %q: %w", fields[2], err)
	}
	if s.Accel, err = strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad accel %q: %w", fields[3], err)
	}
	if s.Clutch, err = parseBoolField(fields[4]); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad clutch %q: %w", fields[4], err)
	}
	if s.Neutral, err = parseBoolField(fields[5]); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad neutral %q: %w", fields[5], err)
	}
	if s.Throttle, err = strconv.ParseFloat(strings.TrimSpace(fields[6]), 64); err != nil {
		return drivestats.Sample{}, fmt.Errorf("bad throttle %q: %w", fields[6], err)
	}
	return s, nil
}

// parseBoolField accepts 0/1 and true/false.
func parseBoolField(field string) (bool, error) {
	switch strings.TrimSpace(field) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(field))
}

// replay feeds the telemetry log to the tracker one sample per tick until
// the log is exhausted or the context is cancelled.
func replay(ctx context.Context, tracker *drivestats.Tracker, path string, realtime bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open telemetry log: %w", err)
	}
	defer f.Close()

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(drivestats.TickPeriod)
		defer ticker.Stop()
	}

	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, err := parseSample(line)
		if err != nil {
			log.Printf("skipping line %d: %v", lineNo, err)
			continue
		}
		tracker.Update(sample)

		if realtime {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func main() {
	flag.Parse()

	if *logPath == "" {
		log.Fatal("telemetry log is required (-log)")
	}

	var cfg *config.TuningConfig
	if *tuningPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	store, err := blobstore.OpenSQLite(*dbPath)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}
	defer store.Close()

	tracker := drivestats.NewTracker(cfg, gearbox.DefaultGeometry(), store)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP query surface; reads only the persisted blobs.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ws := api.NewWebServer(api.WebServerConfig{Address: *listen, Store: store})
		if err := ws.Start(ctx); err != nil {
			log.Printf("api server error: %v", err)
		}
	}()

	// Control loop: exactly one goroutine feeds the tracker.
	if err := replay(ctx, tracker, *logPath, !*fast); err != nil && err != context.Canceled {
		log.Printf("replay stopped: %v", err)
	}

	if err := tracker.FinalizeSession(); err != nil {
		log.Printf("failed to finalize session: %v", err)
	}

	stop()
	wg.Wait()
	log.Printf("graceful shutdown complete")
}
