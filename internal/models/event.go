package models

import "time"

// EventType distinguishes the two event variants.
type EventType string

const (
	EventCarIn  EventType = "CAR_IN"
	EventCarOut EventType = "CAR_OUT"
)

// Event is an immutable fact emitted at vehicle entry and exit. Duration and
// cost are only set for CAR_OUT events. TrafficPattern is a descriptive tag
// for downstream analytics and never feeds back into the simulation.
type Event struct {
	EventID        string    `bson:"event_id" json:"event_id"`
	EventType      EventType `bson:"event_type" json:"event_type"`
	SessionID      string    `bson:"session_id" json:"session_id"`
	FacilityID     int       `bson:"facility_id" json:"facility_id"`
	FacilityName   string    `bson:"facility_name" json:"facility_name"`
	District       string    `bson:"district" json:"district"`
	Plate          string    `bson:"license_plate" json:"license_plate"`
	PlateState     string    `bson:"license_plate_state" json:"license_plate_state"`
	EventTime      time.Time `bson:"event_time" json:"event_time"`
	AvailableAfter int       `bson:"available_spots_after" json:"available_spots_after"`
	DurationHours  *float64  `bson:"parking_duration_hours,omitempty" json:"parking_duration_hours,omitempty"`
	Cost           *float64  `bson:"cost,omitempty" json:"cost,omitempty"`
	TrafficPattern string    `bson:"traffic_pattern" json:"traffic_pattern"`
}
