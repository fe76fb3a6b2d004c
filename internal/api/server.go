// Package api serves the read-only query surface. Every handler reads the
// persisted blobs; nothing in this package touches the tracker, so the
// single-writer control loop never shares state with HTTP goroutines.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/driveline-data/driveline.report/internal/blobstore"
	"github.com/driveline-data/driveline.report/internal/drivestats"
	"github.com/driveline-data/driveline.report/internal/monitoring"
	"github.com/driveline-data/driveline.report/internal/units"
)

// WebServer handles the HTTP interface for drive statistics. It provides
// endpoints for health checks, live in-session state, cumulative stats,
// and session history.
type WebServer struct {
	address string
	store   blobstore.Store
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address string
	Store   blobstore.Store
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		store:   config.Store,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("api: failed to encode response: %v", err)
	}
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("api: starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			monitoring.Logf("api: server error: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	monitoring.Logf("api: shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("api: HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("api: HTTP server force close error: %v", err)
		}
	}
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/live", ws.handleLive)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/history", ws.handleHistory)
	mux.HandleFunc("/api/session", ws.handleSession)
	mux.HandleFunc("/api/session/last", ws.handleLastSession)
	mux.HandleFunc("/chart/history", ws.handleHistoryChart)

	return mux
}

// ServeMux exposes the configured routes for tests and embedding.
func (ws *WebServer) ServeMux() *http.ServeMux {
	return ws.setupRoutes()
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLive returns the most recent live snapshot. The blob is refreshed
// on the live flush interval, so values may lag the vehicle by a few
// seconds. The optional 'units' query param converts the road speed
// (default m/s).
func (ws *WebServer) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	target := r.URL.Query().Get("units")
	if target != "" && !units.IsValid(target) {
		ws.writeJSONError(w, http.StatusBadRequest,
			"invalid 'units' parameter, must be one of: "+units.GetValidUnitsString())
		return
	}

	data, err := ws.store.Get(drivestats.BlobLiveStats)
	if errors.Is(err, blobstore.ErrNotFound) {
		ws.writeJSONError(w, http.StatusNotFound, "no live stats recorded yet")
		return
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to load live stats: "+err.Error())
		return
	}

	live, err := drivestats.DecodeLiveStats(data)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "corrupt live stats blob: "+err.Error())
		return
	}

	if target != "" {
		live.Speed = units.ConvertSpeed(live.Speed, target)
		live.SpeedUnits = target
	}
	ws.writeJSON(w, http.StatusOK, live)
}

// handleStats returns the cumulative all-time stats including the bounded
// session history.
func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := ws.loadStats()
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	ws.writeJSON(w, http.StatusOK, stats)
}

// handleHistory returns just the session history, newest last.
func (ws *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := ws.loadStats()
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	history := stats.SessionHistory
	if history == nil {
		history = []drivestats.SessionEntry{}
	}
	ws.writeJSON(w, http.StatusOK, history)
}

// sessionDelta is the current-session view derived from the live blob.
type sessionDelta struct {
	SessionID    string `json:"session_id"`
	Stalls       int64  `json:"stalls"`
	Lugs         int64  `json:"lugs"`
	Shifts       int64  `json:"shifts"`
	GoodShifts   int64  `json:"good_shifts"`
	Launches     int64  `json:"launches"`
	GoodLaunches int64  `json:"good_launches"`
}

// handleSession returns the counters for the drive in progress. The live
// blob already carries the session delta, so this is a projection of it.
func (ws *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	data, err := ws.store.Get(drivestats.BlobLiveStats)
	if errors.Is(err, blobstore.ErrNotFound) {
		ws.writeJSONError(w, http.StatusNotFound, "no session in progress")
		return
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to load live stats: "+err.Error())
		return
	}

	live, err := drivestats.DecodeLiveStats(data)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "corrupt live stats blob: "+err.Error())
		return
	}

	ws.writeJSON(w, http.StatusOK, sessionDelta{
		SessionID:    live.SessionID,
		Stalls:       live.Stalls,
		Lugs:         live.Lugs,
		Shifts:       live.Shifts,
		GoodShifts:   live.GoodShifts,
		Launches:     live.Launches,
		GoodLaunches: live.GoodLaunches,
	})
}

// handleLastSession returns the most recently finalized session entry.
func (ws *WebServer) handleLastSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	data, err := ws.store.Get(drivestats.BlobLastSession)
	if errors.Is(err, blobstore.ErrNotFound) {
		ws.writeJSONError(w, http.StatusNotFound, "no finalized session yet")
		return
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to load last session: "+err.Error())
		return
	}

	var entry drivestats.SessionEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "corrupt last session blob: "+err.Error())
		return
	}
	ws.writeJSON(w, http.StatusOK, entry)
}

// loadStats fetches and decodes the cumulative stats blob.
func (ws *WebServer) loadStats() (*drivestats.Stats, error) {
	data, err := ws.store.Get(drivestats.BlobStats)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, errors.New("no stats recorded yet")
	}
	if err != nil {
		return nil, err
	}
	return drivestats.DecodeStats(data), nil
}
