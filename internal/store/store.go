// Package store holds the mutable simulation state: per-facility occupancy
// and the map of currently-open sessions. A Store instance is owned by
// exactly one engine and mutated from a single goroutine; the real-time
// engine keeps one long-lived instance, the historical engine seeds a fresh
// throwaway per run.
package store

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/models"
	"github.com/parkpulse/parking-iot/internal/pattern"
)

// Store is the facility/session state machine.
type Store struct {
	facilities map[int]*models.Facility
	order      []int
	sessions   map[string]*models.Session
	totalIn    int
	totalOut   int
}

// New seeds a store from the catalog with every spot available.
func New(cat *catalog.Catalog) *Store {
	s := &Store{
		facilities: make(map[int]*models.Facility, cat.Len()),
		sessions:   make(map[string]*models.Session),
	}
	for _, e := range cat.Entries() {
		f := e.Facility()
		s.facilities[f.ID] = &f
		s.order = append(s.order, f.ID)
	}
	return s
}

// RealTimeCost is the live billing policy: a one-hour minimum, rounded up to
// the next whole hour. Historical replay bills continuously instead; the two
// policies are intentionally distinct.
func RealTimeCost(hours, rate float64) float64 {
	billable := math.Ceil(math.Max(1, hours))
	return billable * rate
}

// HistoricalCost is the batch billing policy: continuous, unrounded.
func HistoricalCost(hours, rate float64) float64 {
	return hours * rate
}

// Enter admits a vehicle to a facility at the given time. Returns nil when
// the facility is full or unknown; a full facility is an expected
// steady-state condition, not an error.
func (s *Store) Enter(facilityID int, plateNum, plateState string, now time.Time) *models.Event {
	f, ok := s.facilities[facilityID]
	if !ok || f.Available <= 0 {
		return nil
	}

	f.Available--
	sess := &models.Session{
		SessionID:    uuid.NewString(),
		Plate:        plateNum,
		PlateState:   plateState,
		FacilityID:   f.ID,
		FacilityName: f.Name,
		District:     f.District,
		InTime:       now,
		RatePerHour:  f.RatePerHour,
	}
	s.sessions[sess.SessionID] = sess
	s.totalIn++

	return &models.Event{
		EventID:        uuid.NewString(),
		EventType:      models.EventCarIn,
		SessionID:      sess.SessionID,
		FacilityID:     f.ID,
		FacilityName:   f.Name,
		District:       f.District,
		Plate:          plateNum,
		PlateState:     plateState,
		EventTime:      now,
		AvailableAfter: f.Available,
		TrafficPattern: pattern.Tag(f.District, models.EventCarIn, now),
	}
}

// Exit closes an open session at the given time under real-time billing.
// Unknown or already-closed session ids are a silent no-op, which makes exit
// idempotent under duplicate attempts. Returns the CAR_OUT event and the
// completed session record; ownership of the session transfers to the caller
// exactly once.
func (s *Store) Exit(sessionID string, now time.Time) (*models.Event, *models.Session) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, sessionID)

	f := s.facilities[sess.FacilityID]
	if f.Available < f.TotalSpots {
		f.Available++
	}

	hours := now.Sub(sess.InTime).Hours()
	cost := round2(RealTimeCost(hours, sess.RatePerHour))
	dur := round2(hours)

	sess.OutTime = now
	sess.DurationHours = dur
	sess.Cost = cost
	sess.Status = models.SessionCompleted
	s.totalOut++

	event := &models.Event{
		EventID:        uuid.NewString(),
		EventType:      models.EventCarOut,
		SessionID:      sess.SessionID,
		FacilityID:     f.ID,
		FacilityName:   f.Name,
		District:       f.District,
		Plate:          sess.Plate,
		PlateState:     sess.PlateState,
		EventTime:      now,
		AvailableAfter: f.Available,
		DurationHours:  &dur,
		Cost:           &cost,
		TrafficPattern: pattern.Tag(f.District, models.EventCarOut, now),
	}
	return event, sess
}

// Facility returns a copy of one facility's current state.
func (s *Store) Facility(id int) (models.Facility, bool) {
	f, ok := s.facilities[id]
	if !ok {
		return models.Facility{}, false
	}
	return *f, true
}

// Facilities returns copies of all facilities in id order.
func (s *Store) Facilities() []models.Facility {
	out := make([]models.Facility, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.facilities[id])
	}
	return out
}

// OpenSessions returns copies of all open sessions, ordered by session id so
// a seeded sweep is reproducible.
func (s *Store) OpenSessions() []models.Session {
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// OpenCount returns the number of open sessions.
func (s *Store) OpenCount() int {
	return len(s.sessions)
}

// Totals returns the cumulative entry and exit counts.
func (s *Store) Totals() (in, out int) {
	return s.totalIn, s.totalOut
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
