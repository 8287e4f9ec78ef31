package models

import "time"

// Session status values.
const (
	SessionCompleted = "completed"
)

// Session is the interval during which one vehicle occupies one spot at one
// facility. RatePerHour is copied from the facility at entry time so a later
// rate change never affects an open session. OutTime stays zero while the
// session is open.
type Session struct {
	SessionID     string    `bson:"session_id" json:"session_id"`
	Plate         string    `bson:"license_plate" json:"license_plate"`
	PlateState    string    `bson:"license_plate_state" json:"license_plate_state"`
	FacilityID    int       `bson:"facility_id" json:"facility_id"`
	FacilityName  string    `bson:"facility_name" json:"facility_name"`
	District      string    `bson:"district" json:"district"`
	InTime        time.Time `bson:"in_time" json:"in_time"`
	OutTime       time.Time `bson:"out_time,omitempty" json:"out_time,omitempty"`
	RatePerHour   float64   `bson:"rate_per_hour" json:"rate_per_hour"`
	DurationHours float64   `bson:"actual_duration_hours,omitempty" json:"actual_duration_hours,omitempty"`
	Cost          float64   `bson:"cost,omitempty" json:"cost,omitempty"`
	Status        string    `bson:"status,omitempty" json:"status,omitempty"`
}

// ElapsedHours returns hours parked as of now.
func (s Session) ElapsedHours(now time.Time) float64 {
	return now.Sub(s.InTime).Hours()
}
