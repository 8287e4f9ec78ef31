package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/models"
)

// captureSink records every delivered batch in memory.
type captureSink struct {
	events    []models.Event
	sessions  []models.Session
	batches   int
	failAfter int // fail deliveries once batches reaches this count; 0 never fails
}

func (c *captureSink) PublishEvents(_ context.Context, evs []models.Event) error {
	c.batches++
	if c.failAfter > 0 && c.batches >= c.failAfter {
		return errors.New("sink unavailable")
	}
	c.events = append(c.events, evs...)
	return nil
}

func (c *captureSink) PublishSessions(_ context.Context, sess []models.Session) error {
	c.batches++
	if c.failAfter > 0 && c.batches >= c.failAfter {
		return errors.New("sink unavailable")
	}
	c.sessions = append(c.sessions, sess...)
	return nil
}

func (c *captureSink) Flush(context.Context) error { return nil }
func (c *captureSink) Close(context.Context) error { return nil }

func (c *captureSink) eventsByType(t models.EventType) []models.Event {
	var out []models.Event
	for _, ev := range c.events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	return out
}

func smallCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]Entry{
		{ID: 20, Name: "Park Slope 7th Ave", Spots: 100, Rate: 12, PeakHours: []int{9, 10, 17, 18}},
		{ID: 41, Name: "St George Ferry Terminal", Spots: 200, Rate: 5, PeakHours: []int{6, 7, 8}},
	})
	require.NoError(t, err)
	return c
}

// Entry aliases the catalog type for the fixture tables.
type Entry = catalog.Entry

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHistoricalRunProducesConsistentStream(t *testing.T) {
	snk := &captureSink{}
	tracker := NewTracker()
	h := NewHistorical(smallCatalog(t), snk, tracker)

	start, end := day(2025, 3, 3), day(2025, 3, 5)
	err := h.Run(context.Background(), HistoricalConfig{Start: start, End: end, BatchSize: 50, Seed: 42})
	require.NoError(t, err)

	snap := tracker.Snapshot()
	assert.Equal(t, models.BackfillCompleted, snap.Status)
	assert.Equal(t, 3, snap.TotalDays)
	assert.Equal(t, 3, snap.DaysCompleted)
	assert.Equal(t, "2025-03-05", snap.CurrentDate)

	ins := snk.eventsByType(models.EventCarIn)
	outs := snk.eventsByType(models.EventCarOut)
	require.NotEmpty(t, ins)
	require.NotEmpty(t, outs)

	// Every record generated must reach the sink, batched or not.
	assert.Equal(t, snap.TotalEvents, len(snk.events))
	assert.Equal(t, snap.TotalSessions, len(snk.sessions))
	assert.Equal(t, len(outs), len(snk.sessions))

	// Each exit closes a distinct session that actually entered, at or
	// after its entry time.
	inBySession := make(map[string]models.Event, len(ins))
	for _, ev := range ins {
		inBySession[ev.SessionID] = ev
	}
	seen := make(map[string]bool)
	for _, ev := range outs {
		require.False(t, seen[ev.SessionID], "session %s exited twice", ev.SessionID)
		seen[ev.SessionID] = true
		in, ok := inBySession[ev.SessionID]
		require.True(t, ok, "exit without entry for %s", ev.SessionID)
		assert.False(t, ev.EventTime.Before(in.EventTime))
		require.NotNil(t, ev.DurationHours)
		assert.GreaterOrEqual(t, *ev.DurationHours, 0.25)
	}

	// Sessions carry the continuous billing policy.
	for _, sess := range snk.sessions {
		assert.Equal(t, models.SessionCompleted, sess.Status)
		assert.InDelta(t, sess.DurationHours*sess.RatePerHour, sess.Cost, 0.25)
	}

	// Entry timestamps stay inside the requested range.
	for _, ev := range ins {
		assert.False(t, ev.EventTime.Before(start))
		assert.True(t, ev.EventTime.Before(end.AddDate(0, 0, 1)))
	}
}

func TestHistoricalCarriesExitsAcrossDayBoundary(t *testing.T) {
	snk := &captureSink{}
	tracker := NewTracker()
	h := NewHistorical(smallCatalog(t), snk, tracker)

	err := h.Run(context.Background(), HistoricalConfig{
		Start: day(2025, 6, 2), End: day(2025, 6, 4), Seed: 7,
	})
	require.NoError(t, err)

	inDay := make(map[string]int)
	for _, ev := range snk.eventsByType(models.EventCarIn) {
		inDay[ev.SessionID] = ev.EventTime.Day()
	}
	crossed := 0
	for _, ev := range snk.eventsByType(models.EventCarOut) {
		if ev.EventTime.Day() != inDay[ev.SessionID] {
			crossed++
		}
	}
	// Late-evening arrivals with multi-hour stays must resolve on the
	// following simulated day, not be dropped at midnight.
	assert.Greater(t, crossed, 0)
}

func TestHistoricalSeedReproducible(t *testing.T) {
	run := func() []string {
		snk := &captureSink{}
		h := NewHistorical(smallCatalog(t), snk, NewTracker())
		err := h.Run(context.Background(), HistoricalConfig{
			Start: day(2025, 1, 6), End: day(2025, 1, 7), Seed: 99,
		})
		require.NoError(t, err)
		out := make([]string, len(snk.events))
		for i, ev := range snk.events {
			out[i] = fmt.Sprintf("%d|%s|%s|%s", ev.FacilityID, ev.EventType, ev.Plate, ev.EventTime)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestHistoricalSinkFailureIsFatal(t *testing.T) {
	snk := &captureSink{failAfter: 1}
	tracker := NewTracker()
	h := NewHistorical(smallCatalog(t), snk, tracker)

	err := h.Run(context.Background(), HistoricalConfig{
		Start: day(2025, 1, 6), End: day(2025, 1, 8), BatchSize: 10, Seed: 1,
	})
	require.Error(t, err)

	snap := tracker.Snapshot()
	assert.Equal(t, models.BackfillFailed, snap.Status)
	assert.NotEmpty(t, snap.Error)
}

func TestHistoricalCancellation(t *testing.T) {
	snk := &captureSink{}
	tracker := NewTracker()
	h := NewHistorical(smallCatalog(t), snk, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Run(ctx, HistoricalConfig{Start: day(2025, 1, 6), End: day(2025, 1, 8), Seed: 1})
	require.Error(t, err)
	snap := tracker.Snapshot()
	assert.Equal(t, models.BackfillFailed, snap.Status)
	assert.Contains(t, snap.Error, "cancelled")
}

func TestHistoricalRejectsInvertedRange(t *testing.T) {
	tracker := NewTracker()
	h := NewHistorical(smallCatalog(t), &captureSink{}, tracker)

	err := h.Run(context.Background(), HistoricalConfig{
		Start: day(2025, 1, 8), End: day(2025, 1, 6), Seed: 1,
	})
	require.Error(t, err)
	assert.Equal(t, models.BackfillFailed, tracker.Snapshot().Status)
}

func TestHistoricalCapacityNeverExceeded(t *testing.T) {
	c, err := catalog.New([]Entry{
		{ID: 1, Name: "Closet", Spots: 3, Rate: 10, PeakHours: []int{8, 9}},
	})
	require.NoError(t, err)

	snk := &captureSink{}
	h := NewHistorical(c, snk, NewTracker())
	require.NoError(t, h.Run(context.Background(), HistoricalConfig{
		Start: day(2025, 4, 7), End: day(2025, 4, 9), Seed: 5,
	}))

	for _, ev := range snk.events {
		assert.GreaterOrEqual(t, ev.AvailableAfter, 0)
		assert.LessOrEqual(t, ev.AvailableAfter, 3)
	}
}
