package rng

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
)

// Source is the seeded random stream owned by a single generation run.
// All sampling in the engine draws from it so a fixed seed replays the same output.
type Source struct {
	pcg  *rand.PCG
	rand *rand.Rand
}

// New creates a Source from a seed.
func New(seed uint64) *Source {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Source{pcg: pcg, rand: rand.New(pcg)}
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rand.Float64()
}

// IntN returns a value in [0, n).
func (s *Source) IntN(n int) int {
	return s.rand.IntN(n)
}

// Between returns an int in [min, max] inclusive.
func (s *Source) Between(min, max int) int {
	return min + s.rand.IntN(max-min+1)
}

// Uniform returns a float in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rand.Float64()
}

// NormFloat64 returns a standard normal sample.
func (s *Source) NormFloat64() float64 {
	return s.rand.NormFloat64()
}

// Poisson samples a Poisson distributed count with the given mean.
// Knuth's method is used for moderate means, a rounded normal approximation above 30.
func (s *Source) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 30 {
		val := int(math.Round(s.rand.NormFloat64()*math.Sqrt(mean) + mean))
		if val < 0 {
			return 0
		}
		return val
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for p > l {
		k++
		p *= s.rand.Float64()
	}
	return k - 1
}

// Read fills p with random bytes. It lets uuid.NewRandomFromReader draw from the run's stream.
func (s *Source) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], s.rand.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

// MarshalBinary captures the generator state.
func (s *Source) MarshalBinary() ([]byte, error) {
	return s.pcg.MarshalBinary()
}

// UnmarshalBinary restores a state captured by MarshalBinary.
func (s *Source) UnmarshalBinary(data []byte) error {
	if err := s.pcg.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("restore rng state: %w", err)
	}
	return nil
}
