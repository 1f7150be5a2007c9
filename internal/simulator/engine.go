package simulator

import (
	"fmt"
	"time"

	"parking-iot-backend/internal/occupancy"
	"parking-iot-backend/internal/plate"
	"parking-iot-backend/internal/progress"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/rng"
	"parking-iot-backend/internal/stream"
	"parking-iot-backend/internal/traffic"
)

// EngineOptions configures one run's simulation.
type EngineOptions struct {
	Seed                uint64
	ArrivalsPerSpotHour float64
	EmitActiveSessions  bool
}

// Engine is one run's private simulation state. Runs share only the registry and traffic model.
type Engine struct {
	seed      uint64
	src       *rng.Source
	machine   *occupancy.Machine
	assembler *stream.Assembler
	clock     time.Time
}

// NewEngine creates an Engine whose clock starts at start.
func NewEngine(reg *registry.Registry, tm *traffic.Model, start time.Time, opts EngineOptions) *Engine {
	src := rng.New(opts.Seed)
	return &Engine{
		seed:      opts.Seed,
		src:       src,
		machine:   occupancy.New(reg, tm, plate.New(src), src, occupancy.Options{ArrivalsPerSpotHour: opts.ArrivalsPerSpotHour}),
		assembler: stream.New(src, stream.Options{EmitActiveSessions: opts.EmitActiveSessions}),
		clock:     start,
	}
}

// Step runs one tick from the engine clock to `to` and assembles its records.
func (e *Engine) Step(to time.Time, opts ...occupancy.TickOption) (stream.Records, error) {
	transitions, err := e.machine.Tick(e.clock, to, opts...)
	if err != nil {
		return stream.Records{}, err
	}
	if to.After(e.clock) {
		e.clock = to
	}
	return e.assembler.Assemble(transitions)
}

// Clock returns the simulated time reached so far.
func (e *Engine) Clock() time.Time {
	return e.clock
}

// Seed returns the seed the engine was created with.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// Machine exposes the occupancy state for read-only snapshots.
func (e *Engine) Machine() *occupancy.Machine {
	return e.machine
}

// Rand exposes the run's random source.
func (e *Engine) Rand() *rng.Source {
	return e.src
}

// State captures everything needed to continue the run later.
func (e *Engine) State() (*progress.EngineState, error) {
	state, err := e.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("capture rng state: %w", err)
	}
	return &progress.EngineState{
		Seed:     e.seed,
		Clock:    e.clock,
		RNG:      state,
		Sessions: e.machine.Snapshot(),
	}, nil
}

// Restore continues from a state captured by State.
func (e *Engine) Restore(st *progress.EngineState) error {
	if err := e.src.UnmarshalBinary(st.RNG); err != nil {
		return err
	}
	if err := e.machine.Restore(st.Sessions); err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	e.seed = st.Seed
	e.clock = st.Clock
	return nil
}

func timeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}
