package pattern

import "math/rand"

// minStayHours is the hard floor on any sampled stay.
const minStayHours = 0.25

// StayDuration samples a stay length in hours for a vehicle entering a
// district. Airport parking is bimodal: a short pickup/dropoff mode and a
// long multi-day travel mode. All other districts draw from a Gaussian
// around the district's average stay.
func StayDuration(rng *rand.Rand, district string) float64 {
	if district == "Airport" {
		if rng.Float64() < 0.3 {
			return minStayHours + rng.Float64()*(1.0-minStayHours)
		}
		return 24 + rng.Float64()*(168-24) // one to seven days
	}

	avg := Get(district).AvgStayHours
	dur := rng.NormFloat64()*avg*0.4 + avg
	if dur < minStayHours {
		dur = minStayHours
	}
	return dur
}
