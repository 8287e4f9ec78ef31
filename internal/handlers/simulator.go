// Package handlers implements the control/status HTTP API: operator login,
// the polled backfill progress blob, live occupancy, and start/stop of the
// two generation engines.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/parkpulse/parking-iot/internal/auth"
	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/engine"
	"github.com/parkpulse/parking-iot/internal/models"
	"github.com/parkpulse/parking-iot/internal/sink"
)

const defaultTickInterval = 500 * time.Millisecond

// SimulatorHandler owns the engines exposed through the API. The real-time
// engine is created lazily on first start and keeps its state across
// stop/start; backfill runs one at a time.
type SimulatorHandler struct {
	authService *auth.Service
	cat         *catalog.Catalog
	sink        sink.Sink
	tracker     *engine.Tracker
	historical  *engine.Historical

	mu       sync.Mutex
	realtime *engine.RealTime
	cancelRT context.CancelFunc
}

// NewSimulatorHandler wires the handler to its collaborators.
func NewSimulatorHandler(authService *auth.Service, cat *catalog.Catalog, snk sink.Sink, tracker *engine.Tracker) *SimulatorHandler {
	return &SimulatorHandler{
		authService: authService,
		cat:         cat,
		sink:        snk,
		tracker:     tracker,
		historical:  engine.NewHistorical(cat, snk, tracker),
	}
}

// Health reports liveness.
func (h *SimulatorHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login authenticates the operator and returns a bearer token.
func (h *SimulatorHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	if err := h.authService.Authenticate(req.Username, req.Password); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(req.Username)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Progress serves the latest backfill progress snapshot.
func (h *SimulatorHandler) Progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

// Facilities serves the live occupancy table. Before the real-time engine
// has started it reflects the catalog with every spot available.
func (h *SimulatorHandler) Facilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	rt := h.realtime
	h.mu.Unlock()

	var facilities []models.Facility
	if rt != nil {
		facilities = rt.Facilities()
	} else {
		for _, e := range h.cat.Entries() {
			facilities = append(facilities, e.Facility())
		}
	}
	writeJSON(w, http.StatusOK, facilities)
}

// StartRealtime begins live generation. Returns 409 when already running.
func (h *SimulatorHandler) StartRealtime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelRT != nil {
		http.Error(w, "Real-time simulation already running", http.StatusConflict)
		return
	}
	if h.realtime == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		h.realtime = engine.NewRealTime(h.cat, h.sink, rng, time.Now())
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancelRT = cancel
	go h.realtime.Run(ctx, defaultTickInterval)

	log.Info("Real-time simulation started via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

// StopRealtime halts live generation; engine state is kept for a later
// start.
func (h *SimulatorHandler) StopRealtime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelRT == nil {
		http.Error(w, "Real-time simulation not running", http.StatusConflict)
		return
	}
	h.cancelRT()
	h.cancelRT = nil

	log.Info("Real-time simulation stopped via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// StartBackfill launches a historical generation run in the background.
func (h *SimulatorHandler) StartBackfill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		BatchSize int    `json:"batch_size"`
		Seed      int64  `json:"seed"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if end.Before(start) {
		http.Error(w, "end_date must not precede start_date", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tracker.Running() {
		http.Error(w, "A backfill is already running", http.StatusConflict)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	h.historical.Start(context.Background(), engine.HistoricalConfig{
		Start:     start,
		End:       end,
		BatchSize: req.BatchSize,
		Seed:      seed,
	})

	log.WithFields(log.Fields{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	}).Info("Backfill started via API")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "starting"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
