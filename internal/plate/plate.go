package plate

import (
	"fmt"
	"strings"

	"parking-iot-backend/internal/rng"
)

// letters excludes I, O and Q, which are not issued on plates.
const letters = "ABCDEFGHJKLMNPRSTUVWXYZ"

const other = "OTHER"

// StateWeight is one entry of the plate state distribution.
type StateWeight struct {
	State  string  `json:"state"`
	Weight float64 `json:"weight"`
}

var defaultWeights = []StateWeight{
	{State: "NY", Weight: 0.60},
	{State: "NJ", Weight: 0.15},
	{State: "CT", Weight: 0.08},
	{State: "PA", Weight: 0.07},
	{State: "MA", Weight: 0.03},
	{State: "FL", Weight: 0.02},
	{State: "CA", Weight: 0.01},
	{State: "TX", Weight: 0.01},
	{State: "VA", Weight: 0.01},
	{State: other, Weight: 0.02},
}

var otherStates = []string{"MD", "NC", "GA", "OH", "IL", "MI", "VT", "NH", "ME", "RI", "DE", "DC"}

// Generator produces (plate, state) pairs from the run's random source.
type Generator struct {
	src     *rng.Source
	weights []StateWeight
	total   float64
}

// New creates a Generator with the NYC-area state distribution.
func New(src *rng.Source) *Generator {
	total := 0.0
	for _, w := range defaultWeights {
		total += w.Weight
	}
	return &Generator{src: src, weights: defaultWeights, total: total}
}

// Weights returns a copy of the configured state distribution.
func Weights() []StateWeight {
	out := make([]StateWeight, len(defaultWeights))
	copy(out, defaultWeights)
	return out
}

// Next draws a state and a plate in that state's format.
// Uniqueness is not guaranteed.
func (g *Generator) Next() (plate, state string) {
	state = g.pickState()
	return g.format(state), state
}

func (g *Generator) pickState() string {
	x := g.src.Float64() * g.total
	state := g.weights[len(g.weights)-1].State
	for _, w := range g.weights {
		if x < w.Weight {
			state = w.State
			break
		}
		x -= w.Weight
	}
	if state == other {
		state = otherStates[g.src.IntN(len(otherStates))]
	}
	return state
}

func (g *Generator) letters(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(letters[g.src.IntN(len(letters))])
	}
	return b.String()
}

func (g *Generator) format(state string) string {
	switch state {
	case "NJ":
		return fmt.Sprintf("%s%d-%s", g.letters(1), g.src.Between(10, 99), g.letters(3))
	case "CT":
		return fmt.Sprintf("%s-%d", g.letters(2), g.src.Between(10000, 99999))
	case "MA":
		return fmt.Sprintf("%d%s-%s%d", g.src.Between(1, 9), g.letters(2), g.letters(1), g.src.Between(10, 99))
	case "CA":
		return fmt.Sprintf("%d%s%d", g.src.Between(1, 9), g.letters(3), g.src.Between(100, 999))
	case "VT", "NH", "ME":
		return fmt.Sprintf("%s-%d", g.letters(3), g.src.Between(100, 999))
	case "MD":
		return fmt.Sprintf("%d%s-%s%d", g.src.Between(1, 9), g.letters(2), g.letters(1), g.src.Between(100, 999))
	case "DC":
		return fmt.Sprintf("%s-%d", g.letters(2), g.src.Between(1000, 9999))
	case "DE":
		return fmt.Sprintf("%d", g.src.Between(10000, 999999))
	case "RI":
		return fmt.Sprintf("%d-%d", g.src.Between(100, 999), g.src.Between(100, 999))
	default:
		// NY, PA, FL, TX, VA and anything unlisted
		return fmt.Sprintf("%s-%d", g.letters(3), g.src.Between(1000, 9999))
	}
}
