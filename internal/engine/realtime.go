// Package engine contains the two event producers: the real-time tick
// engine and the historical batch engine. Both drive the same district
// pattern, plate and exit-probability models so their output is
// statistically equivalent.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/models"
	"github.com/parkpulse/parking-iot/internal/pattern"
	"github.com/parkpulse/parking-iot/internal/plate"
	"github.com/parkpulse/parking-iot/internal/sink"
	"github.com/parkpulse/parking-iot/internal/store"
)

const (
	// Timer bounds in seconds; busier facilities tick more often.
	baseMinInterval = 5.0
	baseMaxInterval = 30.0
	floorMin        = 3
	floorMax        = 10

	// Initial jitter so facilities do not fire in lockstep.
	startupJitterSec = 10
)

// RealTime is the live tick engine. It owns the long-lived store and a
// per-facility "next eligible entry" timer. All state transitions happen
// synchronously inside Tick; the engine never blocks on I/O for its own
// bookkeeping. Ticks are serialized by an internal mutex (single-writer
// discipline); the snapshot accessors share the same lock so observers may
// read from other goroutines.
type RealTime struct {
	mu     sync.Mutex
	cat    *catalog.Catalog
	store  *store.Store
	sink   sink.Sink
	rng    *rand.Rand
	timers map[int]time.Time
}

// NewRealTime seeds the engine with jittered facility timers starting at now.
func NewRealTime(cat *catalog.Catalog, snk sink.Sink, rng *rand.Rand, now time.Time) *RealTime {
	e := &RealTime{
		cat:    cat,
		store:  store.New(cat),
		sink:   snk,
		rng:    rng,
		timers: make(map[int]time.Time, cat.Len()),
	}
	for _, entry := range cat.Entries() {
		jitter := time.Duration(rng.Float64() * startupJitterSec * float64(time.Second))
		e.timers[entry.ID] = now.Add(jitter)
	}
	return e
}

// Facilities returns an occupancy snapshot for observers.
func (e *RealTime) Facilities() []models.Facility {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Facilities()
}

// Stats returns cumulative entry/exit counts and the open session count.
func (e *RealTime) Stats() (in, out, open int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	in, out = e.store.Totals()
	return in, out, e.store.OpenCount()
}

// Tick advances the simulation to now: facilities whose timer elapsed
// generate an entry batch and reschedule, then every open session takes one
// Bernoulli trial against the exit-probability model. Returns all events
// produced this tick; delivery failures are logged, never propagated, and
// engine state is never rolled back for them.
func (e *RealTime) Tick(ctx context.Context, now time.Time) []models.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []models.Event
	var sessions []models.Session

	for _, entry := range e.cat.Entries() {
		if now.Before(e.timers[entry.ID]) {
			continue
		}
		events = append(events, e.generateEntries(entry, now)...)
		e.timers[entry.ID] = now.Add(e.nextInterval(entry, now))
	}

	exitEvents, completed := e.sweepExits(now)
	events = append(events, exitEvents...)
	sessions = append(sessions, completed...)

	if len(events) > 0 {
		if err := e.sink.PublishEvents(ctx, events); err != nil {
			log.WithError(err).Error("Failed to deliver events to sink")
		}
	}
	if len(sessions) > 0 {
		if err := e.sink.PublishSessions(ctx, sessions); err != nil {
			log.WithError(err).Error("Failed to deliver sessions to sink")
		}
	}
	return events
}

// nextInterval shrinks the reschedule window as the facility's traffic
// multiplier grows.
func (e *RealTime) nextInterval(entry catalog.Entry, now time.Time) time.Duration {
	mult := pattern.TrafficMultiplier(entry.District, entry.PeakHours, now)
	if mult < 0.3 {
		mult = 0.3
	}
	minSec := int(baseMinInterval / mult)
	if minSec < floorMin {
		minSec = floorMin
	}
	maxSec := int(baseMaxInterval / mult)
	if maxSec < floorMax {
		maxSec = floorMax
	}
	if maxSec <= minSec {
		maxSec = minSec + 1
	}
	sec := minSec + e.rng.Intn(maxSec-minSec+1)
	return time.Duration(sec) * time.Second
}

// entryCount derives how many arrivals to attempt for a facility this slice:
// a base draw from the time-of-day bucket, scaled by peak bias and the
// traffic multiplier, then throttled as occupancy approaches capacity.
func (e *RealTime) entryCount(entry catalog.Entry, f models.Facility, now time.Time) int {
	hour := now.Hour()
	mult := pattern.TrafficMultiplier(entry.District, entry.PeakHours, now)

	var base int
	switch {
	case hour >= 2 && hour < 6: // overnight lull
		base = e.rng.Intn(3)
	case (hour >= 6 && hour < 10) || (hour >= 16 && hour < 20): // commute
		base = 3 + e.rng.Intn(4)
	default:
		base = 5 + e.rng.Intn(4)
	}

	bias := 0.8
	if hourIn(entry.PeakHours, hour) {
		bias = 1.5
	}
	count := int(float64(base) * bias * mult)

	occ := f.Occupancy()
	switch {
	case occ > 0.9:
		count -= 3
	case occ > 0.7:
		count -= 1
	}
	if count < 0 {
		count = 0
	}
	return count
}

func (e *RealTime) generateEntries(entry catalog.Entry, now time.Time) []models.Event {
	f, ok := e.store.Facility(entry.ID)
	if !ok {
		return nil
	}
	count := e.entryCount(entry, f, now)

	var events []models.Event
	for i := 0; i < count; i++ {
		plateNum, plateState := plate.Generate(e.rng)
		// A full facility yields nil: skipped, never queued.
		if ev := e.store.Enter(entry.ID, plateNum, plateState, now); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// sweepExits evaluates every open session once against the exit-probability
// model. O(open sessions) per tick, which is fine at this scale; a priority
// queue keyed by next check time would be the drop-in replacement if it ever
// is not.
func (e *RealTime) sweepExits(now time.Time) ([]models.Event, []models.Session) {
	var events []models.Event
	var sessions []models.Session
	hour := now.Hour()

	for _, sess := range e.store.OpenSessions() {
		prob := pattern.ExitProbability(sess.ElapsedHours(now), sess.District, hour)
		if e.rng.Float64() >= prob {
			continue
		}
		ev, completed := e.store.Exit(sess.SessionID, now)
		if ev != nil {
			events = append(events, *ev)
			sessions = append(sessions, *completed)
		}
	}
	return events, sessions
}

// Run drives Tick on a fixed wall-clock interval until the context is
// cancelled.
func (e *RealTime) Run(ctx context.Context, interval time.Duration) {
	log.WithFields(log.Fields{
		"facilities": e.cat.Len(),
		"interval":   interval,
	}).Info("Starting real-time traffic simulation")

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			in, out, open := e.Stats()
			log.WithFields(log.Fields{
				"total_in":  in,
				"total_out": out,
				"open":      open,
			}).Info("Real-time simulation stopped")
			return
		case now := <-tick.C:
			e.Tick(ctx, now)
		}
	}
}

func hourIn(set []int, h int) bool {
	for _, v := range set {
		if v == h {
			return true
		}
	}
	return false
}
