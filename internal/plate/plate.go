// Package plate generates license plates with a state-weighted distribution
// matching NYC-area traffic. Generation is stateless and side-effect-free
// beyond the supplied random source.
package plate

import (
	"fmt"
	"math/rand"
	"strings"
)

// letters excludes I, O and Q, which read ambiguously on plates.
const letters = "ABCDEFGHJKLMNPRSTUVWXYZ"

// stateWeight pins the iteration order of the weighted draw so a seeded
// source reproduces the same sequence.
type stateWeight struct {
	state  string
	weight float64
}

var stateWeights = []stateWeight{
	{"NY", 0.60},
	{"NJ", 0.15},
	{"CT", 0.08},
	{"PA", 0.07},
	{"MA", 0.03},
	{"FL", 0.02},
	{"CA", 0.01},
	{"TX", 0.01},
	{"VA", 0.01},
	{"OTHER", 0.02},
}

// otherStates is the long tail the residual OTHER bucket fans out over.
var otherStates = []string{"MD", "NC", "GA", "OH", "IL", "MI", "VT", "NH", "ME", "RI", "DE", "DC"}

// Generate returns a plate string and its issuing state.
func Generate(rng *rand.Rand) (string, string) {
	state := pickState(rng)
	return formatFor(state, rng), state
}

func pickState(rng *rand.Rand) string {
	var total float64
	for _, sw := range stateWeights {
		total += sw.weight
	}
	r := rng.Float64() * total
	for _, sw := range stateWeights {
		if r < sw.weight {
			if sw.state == "OTHER" {
				return otherStates[rng.Intn(len(otherStates))]
			}
			return sw.state
		}
		r -= sw.weight
	}
	return "NY"
}

func randLetters(rng *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(letters[rng.Intn(len(letters))])
	}
	return b.String()
}

// randInt returns a uniform integer in [lo, hi].
func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// formatFor renders a plate in the format used by each state.
func formatFor(state string, rng *rand.Rand) string {
	switch state {
	case "NY", "PA", "TX", "VA", "FL":
		return fmt.Sprintf("%s-%d", randLetters(rng, 3), randInt(rng, 1000, 9999))
	case "NJ":
		return fmt.Sprintf("%s%d-%s", randLetters(rng, 1), randInt(rng, 10, 99), randLetters(rng, 3))
	case "CT":
		return fmt.Sprintf("%s-%d", randLetters(rng, 2), randInt(rng, 10000, 99999))
	case "MA":
		return fmt.Sprintf("%d%s-%s%d", randInt(rng, 1, 9), randLetters(rng, 2), randLetters(rng, 1), randInt(rng, 10, 99))
	case "CA":
		return fmt.Sprintf("%d%s%d", randInt(rng, 1, 9), randLetters(rng, 3), randInt(rng, 100, 999))
	case "VT", "NH", "ME":
		return fmt.Sprintf("%s-%d", randLetters(rng, 3), randInt(rng, 100, 999))
	case "MD":
		return fmt.Sprintf("%d%s-%s%d", randInt(rng, 1, 9), randLetters(rng, 2), randLetters(rng, 1), randInt(rng, 100, 999))
	case "DC":
		return fmt.Sprintf("%s-%d", randLetters(rng, 2), randInt(rng, 1000, 9999))
	case "DE":
		return fmt.Sprintf("%d", randInt(rng, 10000, 999999))
	case "RI":
		return fmt.Sprintf("%d-%d", randInt(rng, 100, 999), randInt(rng, 100, 999))
	default:
		return fmt.Sprintf("%s-%d", randLetters(rng, 3), randInt(rng, 1000, 9999))
	}
}
