package models

import (
	"testing"
	"time"
)

func TestFacilityOccupancy(t *testing.T) {
	f := Facility{TotalSpots: 100, Available: 100}
	if got := f.Occupancy(); got != 0 {
		t.Errorf("empty facility occupancy = %v, want 0", got)
	}

	f.Available = 25
	if got := f.Occupancy(); got != 0.75 {
		t.Errorf("occupancy = %v, want 0.75", got)
	}

	f.Available = 0
	if got := f.Occupancy(); got != 1 {
		t.Errorf("full occupancy = %v, want 1", got)
	}

	zero := Facility{}
	if got := zero.Occupancy(); got != 0 {
		t.Errorf("zero-capacity occupancy = %v, want 0", got)
	}
}

func TestSessionElapsedHours(t *testing.T) {
	in := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	s := Session{InTime: in}

	if got := s.ElapsedHours(in.Add(90 * time.Minute)); got != 1.5 {
		t.Errorf("ElapsedHours = %v, want 1.5", got)
	}
	if got := s.ElapsedHours(in); got != 0 {
		t.Errorf("ElapsedHours at entry = %v, want 0", got)
	}
}
