package pattern

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/parkpulse/parking-iot/internal/models"
)

// 2026-08-19 is a Wednesday, 2026-08-22 a Saturday.
var (
	weekday = time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	weekend = time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
)

func TestGetUnknownDistrictFallsBack(t *testing.T) {
	d := Get("Atlantis")
	if d.WeekdayMult != 1.0 || d.WeekendMult != 1.0 {
		t.Errorf("fallback multipliers = %v/%v, want 1.0/1.0", d.WeekdayMult, d.WeekendMult)
	}
	if d.AvgStayHours != 4 {
		t.Errorf("fallback avg stay = %v, want 4", d.AvgStayHours)
	}
}

func TestDayMultiplier(t *testing.T) {
	if got := DayMultiplier("Manhattan", weekday); got != 1.4 {
		t.Errorf("Manhattan weekday = %v, want 1.4", got)
	}
	if got := DayMultiplier("Manhattan", weekend); got != 1.2 {
		t.Errorf("Manhattan weekend = %v, want 1.2", got)
	}
	if got := DayMultiplier("Staten_Island", weekend); got != 0.7 {
		t.Errorf("Staten_Island weekend = %v, want 0.7", got)
	}
}

func TestTrafficMultiplierCompoundsPeakBoost(t *testing.T) {
	at9 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)

	base := TrafficMultiplier("Manhattan", nil, at9)
	if base != 1.4 {
		t.Fatalf("off-peak multiplier = %v, want 1.4", base)
	}
	boosted := TrafficMultiplier("Manhattan", []int{8, 9, 10}, at9)
	if boosted != 1.4*2.0 {
		t.Errorf("peak multiplier = %v, want %v", boosted, 1.4*2.0)
	}
}

func TestExitProbabilityBelowMinStayIsZero(t *testing.T) {
	for _, h := range []float64{0, 0.1, 0.249} {
		if got := ExitProbability(h, "Manhattan", 12); got != 0 {
			t.Errorf("ExitProbability(%v) = %v, want 0", h, got)
		}
	}
}

func TestExitProbabilitySteps(t *testing.T) {
	// Manhattan avg stay is 4h; probe each breakpoint interval off-peak.
	cases := []struct {
		parked float64
		want   float64
	}{
		{0.3, 0.05},
		{0.75, 0.10},
		{1.5, 0.15},
		{3.0, 0.25},
		{5.0, 0.40},
		{7.0, 0.60},
		{8.0, 0.80},
		{100, 0.80},
	}
	for _, c := range cases {
		if got := ExitProbability(c.parked, "Manhattan", 12); got != c.want {
			t.Errorf("ExitProbability(%v) = %v, want %v", c.parked, got, c.want)
		}
	}
}

func TestExitProbabilityMonotoneOffPeak(t *testing.T) {
	prev := 0.0
	for h := 0.25; h < 12; h += 0.25 {
		got := ExitProbability(h, "Brooklyn", 12)
		if got < prev {
			t.Fatalf("probability decreased at %vh: %v < %v", h, got, prev)
		}
		prev = got
	}
}

func TestExitProbabilityPeakBoostClamped(t *testing.T) {
	// Manhattan hour 18 is peak exit, boost 2.5: 0.8*2.5 clamps to 0.95.
	if got := ExitProbability(10, "Manhattan", 18); got != 0.95 {
		t.Errorf("clamped probability = %v, want 0.95", got)
	}
	// 0.25*2.5 stays under the clamp.
	if got := ExitProbability(3, "Manhattan", 18); got != 0.25*2.5 {
		t.Errorf("boosted probability = %v, want %v", got, 0.25*2.5)
	}
}

func TestEntryProbability(t *testing.T) {
	// Hour 3 is outside every peak window.
	if got := EntryProbability(3, "Manhattan"); got != 0.1 {
		t.Errorf("night probability = %v, want 0.1", got)
	}
	// Hour 10 is in Manhattan's peak-entry window: 0.7*2.0 clamps to 1.
	if got := EntryProbability(10, "Manhattan"); got != 1.0 {
		t.Errorf("peak probability = %v, want 1.0", got)
	}
	// Hour 23 off-peak everywhere.
	if got := EntryProbability(23, "Bronx"); got != 0.2 {
		t.Errorf("late probability = %v, want 0.2", got)
	}
}

func TestTag(t *testing.T) {
	at9 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	got := Tag("Manhattan", models.EventCarIn, at9)
	want := "Manhattan|weekday_busy+peak_entry_hour|mult:1.4x"
	if got != want {
		t.Errorf("Tag = %q, want %q", got, want)
	}

	// Exit events never pick up the entry window.
	got = Tag("Manhattan", models.EventCarOut, at9)
	if strings.Contains(got, "peak_entry_hour") {
		t.Errorf("exit tag contains entry marker: %q", got)
	}

	// Staten Island weekends run quiet but above the slow threshold.
	sat := time.Date(2026, 8, 22, 3, 0, 0, 0, time.UTC)
	got = Tag("Staten_Island", models.EventCarIn, sat)
	if !strings.Contains(got, "weekend_normal") {
		t.Errorf("tag = %q, want weekend_normal marker", got)
	}
	if !strings.Contains(got, "mult:0.7x") {
		t.Errorf("tag = %q, want mult:0.7x", got)
	}
}

func TestStayDurationFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		d := StayDuration(rng, "Brooklyn")
		if d < 0.25 {
			t.Fatalf("stay %v below 15 minute floor", d)
		}
	}
}

func TestStayDurationAirportBimodal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	short, long := 0, 0
	for i := 0; i < 10000; i++ {
		d := StayDuration(rng, "Airport")
		switch {
		case d >= 0.25 && d <= 1:
			short++
		case d >= 24 && d <= 168:
			long++
		default:
			t.Fatalf("airport stay %v outside both modes", d)
		}
	}
	// Expect roughly 30/70; allow generous slack.
	if short < 2500 || short > 3500 {
		t.Errorf("short-mode count = %d of 10000, want ~3000", short)
	}
	if long < 6500 || long > 7500 {
		t.Errorf("long-mode count = %d of 10000, want ~7000", long)
	}
}
