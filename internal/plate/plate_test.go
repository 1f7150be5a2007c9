package plate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-iot-backend/internal/rng"
)

func TestNext_StateDistributionConverges(t *testing.T) {
	gen := New(rng.New(2024))

	const draws = 10000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		_, state := gen.Next()
		counts[state]++
	}

	assert.InDelta(t, 0.60, float64(counts["NY"])/draws, 0.03)
	assert.InDelta(t, 0.15, float64(counts["NJ"])/draws, 0.02)
	assert.Zero(t, counts[other], "OTHER must be resolved to a concrete state")
}

func TestFormat(t *testing.T) {
	testCases := []struct {
		state   string
		pattern string
	}{
		{state: "NY", pattern: `^[A-Z]{3}-\d{4}$`},
		{state: "NJ", pattern: `^[A-Z]\d{2}-[A-Z]{3}$`},
		{state: "CT", pattern: `^[A-Z]{2}-\d{5}$`},
		{state: "MA", pattern: `^\d[A-Z]{2}-[A-Z]\d{2}$`},
		{state: "CA", pattern: `^\d[A-Z]{3}\d{3}$`},
		{state: "VT", pattern: `^[A-Z]{3}-\d{3}$`},
		{state: "MD", pattern: `^\d[A-Z]{2}-[A-Z]\d{3}$`},
		{state: "DC", pattern: `^[A-Z]{2}-\d{4}$`},
		{state: "DE", pattern: `^\d{5,6}$`},
		{state: "RI", pattern: `^\d{3}-\d{3}$`},
		{state: "OH", pattern: `^[A-Z]{3}-\d{4}$`},
	}

	gen := New(rng.New(5))
	for _, tc := range testCases {
		t.Run(tc.state, func(t *testing.T) {
			re := regexp.MustCompile(tc.pattern)
			for i := 0; i < 50; i++ {
				p := gen.format(tc.state)
				require.Regexp(t, re, p)
				assert.NotContains(t, p, "I")
				assert.NotContains(t, p, "O")
				assert.NotContains(t, p, "Q")
			}
		})
	}
}

func TestNext_SameSeedSamePlates(t *testing.T) {
	a, b := New(rng.New(9)), New(rng.New(9))
	for i := 0; i < 100; i++ {
		pa, sa := a.Next()
		pb, sb := b.Next()
		assert.Equal(t, pa, pb)
		assert.Equal(t, sa, sb)
	}
}

func TestWeights_SumToOne(t *testing.T) {
	total := 0.0
	for _, w := range Weights() {
		total += w.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}
