package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/models"
	"github.com/parkpulse/parking-iot/internal/pattern"
	"github.com/parkpulse/parking-iot/internal/plate"
	"github.com/parkpulse/parking-iot/internal/sink"
	"github.com/parkpulse/parking-iot/internal/store"
)

// entryFraction scales expected hourly arrivals by facility capacity.
const entryFraction = 0.02

// HistoricalConfig parameterizes one backfill run.
type HistoricalConfig struct {
	Start     time.Time // first simulated day (midnight, inclusive)
	End       time.Time // last simulated day (inclusive)
	BatchSize int       // sink flush threshold in records
	Seed      int64     // RNG seed; a fixed seed reproduces the run
}

// Historical replays a contiguous calendar range at hourly granularity,
// independent of wall-clock time. Each run seeds fresh facility state;
// nothing is shared with the real-time engine.
type Historical struct {
	cat     *catalog.Catalog
	sink    sink.Sink
	tracker *Tracker
}

// NewHistorical wires a backfill engine to its catalog, sink and progress
// tracker.
func NewHistorical(cat *catalog.Catalog, snk sink.Sink, tracker *Tracker) *Historical {
	return &Historical{cat: cat, sink: snk, tracker: tracker}
}

// pendingExit is a departure scheduled at entry time and resolved when the
// simulation reaches its hour, possibly days later.
type pendingExit struct {
	at      time.Time
	session models.Session
}

// facilityState is the throwaway per-run occupancy ledger.
type facilityState struct {
	entry     catalog.Entry
	available int
}

// Start launches Run on a background goroutine. The tracker is marked
// starting before the goroutine is spawned so a caller checking Running
// immediately afterwards cannot race a second run in. Failures, including
// panics, are captured in the tracker and never crash the host process.
func (h *Historical) Start(ctx context.Context, cfg HistoricalConfig) {
	if !cfg.End.Before(cfg.Start) {
		start, end := truncateDay(cfg.Start), truncateDay(cfg.End)
		totalDays := int(end.Sub(start).Hours()/24) + 1
		h.tracker.Begin(start.Format("2006-01-02"), end.Format("2006-01-02"), totalDays)
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprintf("backfill panicked: %v", r)
				log.Error(msg)
				h.tracker.Fail(msg)
			}
		}()
		if err := h.Run(ctx, cfg); err != nil {
			log.WithError(err).Error("Backfill run failed")
		}
	}()
}

// Run generates the full range synchronously. On any failure the tracker is
// left in a terminal failed state with a diagnostic; output already flushed
// stays in place.
func (h *Historical) Run(ctx context.Context, cfg HistoricalConfig) error {
	if cfg.End.Before(cfg.Start) {
		err := fmt.Errorf("end date %s before start date %s",
			cfg.End.Format("2006-01-02"), cfg.Start.Format("2006-01-02"))
		h.tracker.Fail(err.Error())
		return err
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}

	start := truncateDay(cfg.Start)
	end := truncateDay(cfg.End)
	totalDays := int(end.Sub(start).Hours()/24) + 1
	h.tracker.Begin(start.Format("2006-01-02"), end.Format("2006-01-02"), totalDays)

	log.WithFields(log.Fields{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
		"total_days": totalDays,
		"batch_size": cfg.BatchSize,
		"seed":       cfg.Seed,
	}).Info("Starting historical backfill")

	rng := rand.New(rand.NewSource(cfg.Seed))

	states := make(map[int]*facilityState, h.cat.Len())
	for _, e := range h.cat.Entries() {
		states[e.ID] = &facilityState{entry: e, available: e.Spots}
	}

	var (
		pending       []pendingExit
		eventsBuf     []models.Event
		sessionsBuf   []models.Session
		totalEvents   int
		totalSessions int
		daysCompleted int
	)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		// Cancellation is cooperative and checked at day boundaries.
		if err := ctx.Err(); err != nil {
			msg := fmt.Sprintf("backfill cancelled on %s: %v", day.Format("2006-01-02"), err)
			h.tracker.Fail(msg)
			return fmt.Errorf("%s", msg)
		}

		dayEvents := 0
		for hour := 0; hour < 24; hour++ {
			// Resolve departures scheduled for this simulated hour,
			// including ones carried over from earlier days.
			due, rest := splitDue(pending, day, hour)
			pending = rest
			for _, pe := range due {
				ev, sess := resolveExit(states[pe.session.FacilityID], pe)
				eventsBuf = append(eventsBuf, ev)
				sessionsBuf = append(sessionsBuf, sess)
				totalEvents++
				totalSessions++
				dayEvents++
			}

			// Generate this hour's arrivals.
			hourStart := day.Add(time.Duration(hour) * time.Hour)
			for _, e := range h.cat.Entries() {
				st := states[e.ID]
				if st.available <= 0 {
					continue
				}
				for i := 0; i < hourlyEntries(rng, st, hourStart); i++ {
					if st.available <= 0 {
						break
					}
					ev, pe := newEntry(rng, st, hourStart)
					eventsBuf = append(eventsBuf, ev)
					pending = append(pending, pe)
					totalEvents++
					dayEvents++
				}
			}
		}

		var err error
		if eventsBuf, err = h.flushEvents(ctx, eventsBuf, cfg.BatchSize); err != nil {
			h.tracker.Fail(err.Error())
			return err
		}
		if sessionsBuf, err = h.flushSessions(ctx, sessionsBuf, cfg.BatchSize); err != nil {
			h.tracker.Fail(err.Error())
			return err
		}

		daysCompleted++
		dateStr := day.Format("2006-01-02")
		line := fmt.Sprintf("%s (%s): events=%d pending=%d total_events=%d sessions=%d",
			dateStr, day.Format("Mon"), dayEvents, len(pending), totalEvents, totalSessions)
		h.tracker.DayCompleted(dateStr, daysCompleted, totalEvents, totalSessions, line)
		log.Debug(line)
	}

	// Trailing partial batches.
	if err := h.deliver(ctx, eventsBuf, sessionsBuf); err != nil {
		h.tracker.Fail(err.Error())
		return err
	}
	if err := h.sink.Flush(ctx); err != nil {
		log.WithError(err).Warn("Sink flush hint failed")
	}

	h.tracker.Complete(totalEvents, totalSessions)
	log.WithFields(log.Fields{
		"total_events":   totalEvents,
		"total_sessions": totalSessions,
		"pending_future": len(pending),
	}).Info("Historical backfill complete")
	return nil
}

// hourlyEntries draws the number of arrivals for one facility-hour: expected
// volume scaled by capacity, day multiplier and the hour's entry
// probability, with Gaussian jitter, capped at remaining capacity.
func hourlyEntries(rng *rand.Rand, st *facilityState, hourStart time.Time) int {
	district := st.entry.District
	mult := pattern.DayMultiplier(district, hourStart)
	prob := pattern.EntryProbability(hourStart.Hour(), district)

	expected := float64(st.entry.Spots) * entryFraction * mult * prob
	n := int(rng.NormFloat64()*expected*0.3 + expected)
	if n < 0 {
		n = 0
	}
	if n > st.available {
		n = st.available
	}
	return n
}

// newEntry admits one vehicle at a random second within the hour, samples
// its stay and schedules the future exit.
func newEntry(rng *rand.Rand, st *facilityState, hourStart time.Time) (models.Event, pendingExit) {
	entryTime := hourStart.
		Add(time.Duration(rng.Intn(60)) * time.Minute).
		Add(time.Duration(rng.Intn(60)) * time.Second)
	plateNum, plateState := plate.Generate(rng)

	st.available--
	sess := models.Session{
		SessionID:    uuid.NewString(),
		Plate:        plateNum,
		PlateState:   plateState,
		FacilityID:   st.entry.ID,
		FacilityName: st.entry.Name,
		District:     st.entry.District,
		InTime:       entryTime,
		RatePerHour:  st.entry.Rate,
	}

	stay := pattern.StayDuration(rng, st.entry.District)
	exitTime := entryTime.Add(time.Duration(stay * float64(time.Hour)))

	ev := models.Event{
		EventID:        uuid.NewString(),
		EventType:      models.EventCarIn,
		SessionID:      sess.SessionID,
		FacilityID:     st.entry.ID,
		FacilityName:   st.entry.Name,
		District:       st.entry.District,
		Plate:          plateNum,
		PlateState:     plateState,
		EventTime:      entryTime,
		AvailableAfter: st.available,
		TrafficPattern: pattern.Tag(st.entry.District, models.EventCarIn, entryTime),
	}
	return ev, pendingExit{at: exitTime, session: sess}
}

// resolveExit closes a scheduled departure under historical billing
// (continuous, unrounded; see store.HistoricalCost).
func resolveExit(st *facilityState, pe pendingExit) (models.Event, models.Session) {
	hours := pe.at.Sub(pe.session.InTime).Hours()
	cost := round2(store.HistoricalCost(hours, pe.session.RatePerHour))
	dur := round2(hours)

	if st.available < st.entry.Spots {
		st.available++
	}

	sess := pe.session
	sess.OutTime = pe.at
	sess.DurationHours = dur
	sess.Cost = cost
	sess.Status = models.SessionCompleted

	ev := models.Event{
		EventID:        uuid.NewString(),
		EventType:      models.EventCarOut,
		SessionID:      sess.SessionID,
		FacilityID:     sess.FacilityID,
		FacilityName:   sess.FacilityName,
		District:       sess.District,
		Plate:          sess.Plate,
		PlateState:     sess.PlateState,
		EventTime:      pe.at,
		AvailableAfter: st.available,
		DurationHours:  &dur,
		Cost:           &cost,
		TrafficPattern: pattern.Tag(sess.District, models.EventCarOut, pe.at),
	}
	return ev, sess
}

// splitDue partitions pending exits into those due in the given day and
// hour and the remainder.
func splitDue(pending []pendingExit, day time.Time, hour int) (due, rest []pendingExit) {
	for _, pe := range pending {
		if sameDay(pe.at, day) && pe.at.Hour() == hour {
			due = append(due, pe)
		} else {
			rest = append(rest, pe)
		}
	}
	return due, rest
}

func (h *Historical) flushEvents(ctx context.Context, buf []models.Event, batchSize int) ([]models.Event, error) {
	if len(buf) < batchSize {
		return buf, nil
	}
	if err := h.sink.PublishEvents(ctx, buf); err != nil {
		return buf, fmt.Errorf("deliver event batch: %w", err)
	}
	return nil, nil
}

func (h *Historical) flushSessions(ctx context.Context, buf []models.Session, batchSize int) ([]models.Session, error) {
	if len(buf) < batchSize {
		return buf, nil
	}
	if err := h.sink.PublishSessions(ctx, buf); err != nil {
		return buf, fmt.Errorf("deliver session batch: %w", err)
	}
	return nil, nil
}

func (h *Historical) deliver(ctx context.Context, events []models.Event, sessions []models.Session) error {
	if len(events) > 0 {
		if err := h.sink.PublishEvents(ctx, events); err != nil {
			return fmt.Errorf("deliver final event batch: %w", err)
		}
	}
	if len(sessions) > 0 {
		if err := h.sink.PublishSessions(ctx, sessions); err != nil {
			return fmt.Errorf("deliver final session batch: %w", err)
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
