package drivestats

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MaxSessionHistory bounds the rolling history of past sessions; the
// oldest entry is evicted first.
const MaxSessionHistory = 30

// SessionEntry summarizes one session (tracker construction to finalize,
// or the latest in-progress snapshot for the current drive).
type SessionEntry struct {
	ID        string  `json:"id"`
	Timestamp float64 `json:"timestamp"` // unix seconds at session start, 0 if clock invalid
	Duration  float64 `json:"duration"`  // seconds

	Stalls          int64 `json:"stalls"`
	Lugs            int64 `json:"lugs"`
	Upshifts        int64 `json:"upshifts"`
	UpshiftsGood    int64 `json:"upshifts_good"`
	Downshifts      int64 `json:"downshifts"`
	DownshiftsGood  int64 `json:"downshifts_good"`
	Launches        int64 `json:"launches"`
	LaunchesGood    int64 `json:"launches_good"`
	LaunchesStalled int64 `json:"launches_stalled"`
}

// Encode marshals the entry for the last-session blob.
func (e SessionEntry) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode session entry: %w", err)
	}
	return data, nil
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// sessionEntryFromDelta builds a history entry from the current-session
// counter delta.
func sessionEntryFromDelta(id string, timestamp, duration float64, d Counters) SessionEntry {
	return SessionEntry{
		ID:              id,
		Timestamp:       timestamp,
		Duration:        duration,
		Stalls:          d.TotalStalls,
		Lugs:            d.TotalLugs,
		Upshifts:        d.TotalUpshifts,
		UpshiftsGood:    d.UpshiftsGood,
		Downshifts:      d.TotalDownshifts,
		DownshiftsGood:  d.DownshiftsGood,
		Launches:        d.TotalLaunches,
		LaunchesGood:    d.LaunchesGood,
		LaunchesStalled: d.LaunchesStalled,
	}
}

// upsertSessionEntry replaces the entry at idx, or appends when idx is
// negative. It enforces the MaxSessionHistory bound (FIFO eviction) and
// returns the updated history along with the entry's index.
func upsertSessionEntry(history []SessionEntry, idx int, entry SessionEntry) ([]SessionEntry, int) {
	if idx >= 0 && idx < len(history) {
		history[idx] = entry
	} else {
		history = append(history, entry)
		idx = len(history) - 1
	}
	if len(history) > MaxSessionHistory {
		drop := len(history) - MaxSessionHistory
		history = append(history[:0], history[drop:]...)
		idx -= drop
	}
	return history, idx
}

// removeSessionEntry drops the entry at idx if it exists.
func removeSessionEntry(history []SessionEntry, idx int) []SessionEntry {
	if idx < 0 || idx >= len(history) {
		return history
	}
	return append(history[:idx], history[idx+1:]...)
}
