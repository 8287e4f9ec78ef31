package engine

import (
	"sync"
	"time"

	"github.com/parkpulse/parking-iot/internal/models"
)

// maxRecentOutput bounds the rolling output log in the snapshot.
const maxRecentOutput = 50

// Tracker is the single-slot progress channel between the historical engine
// and its observers. Writes overwrite the previous snapshot (last writer
// wins); Snapshot reads never consume it.
type Tracker struct {
	mu  sync.RWMutex
	cur models.Progress
}

// NewTracker starts in the not_started state.
func NewTracker() *Tracker {
	return &Tracker{cur: models.Progress{Status: models.BackfillNotStarted}}
}

// Snapshot returns a copy of the latest progress state.
func (t *Tracker) Snapshot() models.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p := t.cur
	p.RecentOutput = append([]string(nil), t.cur.RecentOutput...)
	return p
}

// Begin resets the tracker for a new run.
func (t *Tracker) Begin(startDate, endDate string, totalDays int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = models.Progress{
		Status:      models.BackfillStarting,
		StartDate:   startDate,
		EndDate:     endDate,
		CurrentDate: startDate,
		TotalDays:   totalDays,
		LastUpdate:  time.Now(),
	}
}

// DayCompleted records one simulated day and the cumulative totals.
func (t *Tracker) DayCompleted(date string, daysCompleted, totalEvents, totalSessions int, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur.Status = models.BackfillRunning
	t.cur.CurrentDate = date
	t.cur.DaysCompleted = daysCompleted
	t.cur.TotalEvents = totalEvents
	t.cur.TotalSessions = totalSessions
	t.cur.LastUpdate = time.Now()
	t.cur.RecentOutput = append(t.cur.RecentOutput, line)
	if len(t.cur.RecentOutput) > maxRecentOutput {
		t.cur.RecentOutput = t.cur.RecentOutput[len(t.cur.RecentOutput)-maxRecentOutput:]
	}
}

// Complete marks the run finished.
func (t *Tracker) Complete(totalEvents, totalSessions int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur.Status = models.BackfillCompleted
	t.cur.CurrentDate = t.cur.EndDate
	t.cur.TotalEvents = totalEvents
	t.cur.TotalSessions = totalSessions
	t.cur.LastUpdate = time.Now()
	t.cur.Error = ""
}

// Fail records a terminal failure with a diagnostic message so observers
// never see a stale "running" status.
func (t *Tracker) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur.Status = models.BackfillFailed
	t.cur.Error = msg
	t.cur.LastUpdate = time.Now()
}

// Running reports whether a run is currently in progress.
func (t *Tracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur.Status == models.BackfillStarting || t.cur.Status == models.BackfillRunning
}
