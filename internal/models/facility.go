package models

// Facility is the mutable in-memory state of one parking facility.
// Available is maintained exclusively by session entry/exit operations and
// always equals TotalSpots minus the number of open sessions at the facility.
type Facility struct {
	ID          int     `bson:"facility_id" json:"facility_id"`
	Name        string  `bson:"name" json:"name"`
	District    string  `bson:"district" json:"district"`
	TotalSpots  int     `bson:"total_spots" json:"total_spots"`
	Available   int     `bson:"available" json:"available"`
	RatePerHour float64 `bson:"rate_per_hour" json:"rate_per_hour"`
	PeakHours   []int   `bson:"peak_hours" json:"peak_hours"`
}

// Occupancy returns the occupied fraction in [0, 1].
func (f Facility) Occupancy() float64 {
	if f.TotalSpots == 0 {
		return 0
	}
	return 1 - float64(f.Available)/float64(f.TotalSpots)
}
