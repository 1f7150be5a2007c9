package occupancy

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/plate"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/rng"
	"parking-iot-backend/internal/traffic"
)

const (
	DefaultArrivalsPerSpotHour = 0.05
	DefaultMinStay             = 15 * time.Minute
	DefaultPeakBoost           = 1.5
)

// Options tunes the arrival and departure processes.
type Options struct {
	ArrivalsPerSpotHour float64
	MinStay             time.Duration
	// PeakBoost multiplies arrivals during a facility's own peak hours.
	PeakBoost float64
}

func (o Options) withDefaults() Options {
	if o.ArrivalsPerSpotHour <= 0 {
		o.ArrivalsPerSpotHour = DefaultArrivalsPerSpotHour
	}
	if o.MinStay <= 0 {
		o.MinStay = DefaultMinStay
	}
	if o.PeakBoost <= 0 {
		o.PeakBoost = DefaultPeakBoost
	}
	return o
}

// Machine owns the active sessions of every facility and advances them through time.
// It is not safe for concurrent use; a controller serializes access.
type Machine struct {
	reg     *registry.Registry
	traffic *traffic.Model
	plates  *plate.Generator
	src     *rng.Source
	opts    Options

	// active sessions per facility in admission order
	active    map[int][]Session
	sessionAt map[string]int
	stats     Stats
}

// New creates a Machine with every facility empty.
func New(reg *registry.Registry, tm *traffic.Model, plates *plate.Generator, src *rng.Source, opts Options) *Machine {
	m := &Machine{
		reg:     reg,
		traffic: tm,
		plates:  plates,
		src:     src,
		opts:    opts.withDefaults(),
	}
	m.Reset()
	return m
}

// Reset drops every active session and zeroes the counters.
func (m *Machine) Reset() {
	m.active = make(map[int][]Session, m.reg.Len())
	m.sessionAt = make(map[string]int)
	m.stats = Stats{}
}

type tickConfig struct {
	only  map[int]struct{}
	boost float64
}

// TickOption adjusts a single Tick.
type TickOption func(*tickConfig)

// OnlyFacilities restricts arrivals to the given facilities. Departures still run everywhere.
func OnlyFacilities(ids ...int) TickOption {
	return func(c *tickConfig) {
		if c.only == nil {
			c.only = make(map[int]struct{}, len(ids))
		}
		for _, id := range ids {
			c.only[id] = struct{}{}
		}
	}
}

// ArrivalBoost multiplies the arrival rate of the tick.
func ArrivalBoost(f float64) TickOption {
	return func(c *tickConfig) {
		if f > 0 {
			c.boost = f
		}
	}
}

type candidate struct {
	at         time.Time
	arrival    bool
	facilityID int
	seq        int
	sessionID  string
	tag        string
}

// Tick advances the machine over [from, to) and returns the admitted transitions in time order.
func (m *Machine) Tick(from, to time.Time, opts ...TickOption) ([]Transition, error) {
	if !to.After(from) {
		return nil, nil
	}
	cfg := tickConfig{boost: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	window := to.Sub(from)
	hours := window.Hours()
	var candidates []candidate
	seq := 0

	for _, f := range m.reg.Facilities() {
		if cfg.only != nil {
			if _, ok := cfg.only[f.ID]; !ok {
				continue
			}
		}
		free := f.TotalSpots - len(m.active[f.ID])
		if free <= 0 {
			continue
		}
		in := m.traffic.Intensity(f.District, from)
		mean := float64(free) * m.opts.ArrivalsPerSpotHour * in.EntryRate * m.demand(f, from) * hours * cfg.boost
		n := m.src.Poisson(mean)
		for i := 0; i < n; i++ {
			offset := time.Duration(m.src.Float64() * float64(window))
			candidates = append(candidates, candidate{at: from.Add(offset), arrival: true, facilityID: f.ID, seq: seq, tag: in.Tag})
			seq++
		}
	}

	for _, f := range m.reg.Facilities() {
		sessions := m.active[f.ID]
		if len(sessions) == 0 {
			continue
		}
		in := m.traffic.Intensity(f.District, from)
		for _, s := range sessions {
			earliest := s.InTime.Add(m.opts.MinStay)
			if !earliest.Before(to) {
				continue
			}
			start := from
			if earliest.After(start) {
				start = earliest
			}
			ratio := from.Sub(s.InTime).Hours() / s.StayHours
			rate := in.ExitRate * drift(ratio) / s.StayHours
			p := 1 - math.Exp(-rate*to.Sub(start).Hours())
			if m.src.Float64() >= p {
				continue
			}
			offset := time.Duration(m.src.Float64() * float64(to.Sub(start)))
			candidates = append(candidates, candidate{at: start.Add(offset), facilityID: f.ID, seq: seq, sessionID: s.SessionID, tag: in.Tag})
			seq++
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		if a.arrival != b.arrival {
			return a.arrival
		}
		if a.facilityID != b.facilityID {
			return a.facilityID < b.facilityID
		}
		return a.seq < b.seq
	})

	transitions := make([]Transition, 0, len(candidates))
	for _, c := range candidates {
		if c.arrival {
			t, ok, err := m.arrive(c.facilityID, c.at, c.tag)
			if err != nil {
				return transitions, err
			}
			if ok {
				transitions = append(transitions, t)
			}
			continue
		}
		t, err := m.depart(c.sessionID, c.at, c.tag)
		if err != nil {
			return transitions, err
		}
		transitions = append(transitions, t)
	}
	return transitions, nil
}

// demand weighs a facility's arrival rate by its base rate relative to the default
// and by the peak boost when the hour at ts is one of its peak hours.
func (m *Machine) demand(f model.Facility, ts time.Time) float64 {
	w := f.BaseRate / model.DefaultBaseRate
	if f.BaseRate <= 0 {
		w = 1
	}
	if f.IsPeak(ts.In(m.traffic.Location()).Hour()) {
		w *= m.opts.PeakBoost
	}
	return w
}

// drift scales the departure hazard by how far a session is into its target stay.
func drift(ratio float64) float64 {
	switch {
	case ratio < 0.5:
		return 0.25
	case ratio < 1:
		return 0.75
	case ratio < 1.5:
		return 1.5
	case ratio < 2:
		return 2.5
	default:
		return 4
	}
}

// Arrive admits a car at a facility. ok is false when the facility is full and the arrival is dropped.
func (m *Machine) Arrive(facilityID int, at time.Time) (t Transition, ok bool, err error) {
	return m.arrive(facilityID, at, "")
}

// arrive admits a car and labels it with tag, or with the pattern at the arrival instant when tag is empty.
func (m *Machine) arrive(facilityID int, at time.Time, tag string) (t Transition, ok bool, err error) {
	f, found := m.reg.Facility(facilityID)
	if !found {
		return Transition{}, false, ErrUnknownFacility
	}
	if len(m.active[f.ID]) >= f.TotalSpots {
		m.stats.DroppedArrivals++
		return Transition{}, false, nil
	}

	id, err := uuid.NewRandomFromReader(m.src)
	if err != nil {
		return Transition{}, false, err
	}
	p, state := m.plates.Next()
	s := Session{
		SessionID:    id.String(),
		FacilityID:   f.ID,
		FacilityName: f.Name,
		District:     f.District,
		Plate:        p,
		PlateState:   state,
		InTime:       at,
		RatePerHour:  f.RatePerHour,
		StayHours:    m.traffic.StayHours(f.District, m.src),
	}
	m.active[f.ID] = append(m.active[f.ID], s)
	m.sessionAt[s.SessionID] = f.ID
	m.stats.Arrivals++

	if err := m.checkCapacity(f, at); err != nil {
		return Transition{}, false, err
	}
	if tag == "" {
		tag = m.traffic.Intensity(f.District, at).Tag
	}
	return Transition{
		Type:           model.CarIn,
		Session:        s,
		At:             at,
		AvailableAfter: f.TotalSpots - len(m.active[f.ID]),
		Tag:            tag,
	}, true, nil
}

// Depart completes an active session.
func (m *Machine) Depart(sessionID string, at time.Time) (Transition, error) {
	return m.depart(sessionID, at, "")
}

func (m *Machine) depart(sessionID string, at time.Time, tag string) (Transition, error) {
	facilityID, ok := m.sessionAt[sessionID]
	if !ok {
		return Transition{}, ErrUnknownSession
	}
	f, _ := m.reg.Facility(facilityID)
	sessions := m.active[facilityID]
	idx := -1
	for i := range sessions {
		if sessions[i].SessionID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Transition{}, ErrUnknownSession
	}
	s := sessions[idx]
	if at.Before(s.InTime) {
		return Transition{}, &TimeOrderError{SessionID: sessionID, InTime: s.InTime, OutTime: at}
	}

	m.active[facilityID] = append(sessions[:idx:idx], sessions[idx+1:]...)
	delete(m.sessionAt, sessionID)
	m.stats.Departures++

	if tag == "" {
		tag = m.traffic.Intensity(f.District, at).Tag
	}
	duration := at.Sub(s.InTime).Hours()
	return Transition{
		Type:           model.CarOut,
		Session:        s,
		At:             at,
		AvailableAfter: f.TotalSpots - len(m.active[facilityID]),
		Tag:            tag,
		DurationHours:  duration,
		Cost:           duration * s.RatePerHour,
	}, nil
}

func (m *Machine) checkCapacity(f model.Facility, at time.Time) error {
	if n := len(m.active[f.ID]); n > f.TotalSpots {
		return &CapacityViolation{FacilityID: f.ID, Active: n, Capacity: f.TotalSpots, At: at}
	}
	return nil
}

// Occupied returns the number of active sessions at a facility.
func (m *Machine) Occupied(facilityID int) int {
	return len(m.active[facilityID])
}

// Available returns the free spots of a facility, or 0 for an unknown one.
func (m *Machine) Available(facilityID int) int {
	f, ok := m.reg.Facility(facilityID)
	if !ok {
		return 0
	}
	return f.TotalSpots - len(m.active[facilityID])
}

// ActiveCount returns the number of active sessions across all facilities.
func (m *Machine) ActiveCount() int {
	return len(m.sessionAt)
}

// ActiveSessions returns a copy of every active session ordered by facility id, then admission.
func (m *Machine) ActiveSessions() []Session {
	out := make([]Session, 0, len(m.sessionAt))
	for _, f := range m.reg.Facilities() {
		out = append(out, m.active[f.ID]...)
	}
	return out
}

// Stats returns the counters.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Snapshot captures the active sessions for a checkpoint.
func (m *Machine) Snapshot() []Session {
	return m.ActiveSessions()
}

// Restore replaces the machine state with a snapshot taken by Snapshot.
func (m *Machine) Restore(sessions []Session) error {
	m.Reset()
	for _, s := range sessions {
		f, ok := m.reg.Facility(s.FacilityID)
		if !ok {
			m.Reset()
			return ErrUnknownFacility
		}
		m.active[f.ID] = append(m.active[f.ID], s)
		m.sessionAt[s.SessionID] = f.ID
		if err := m.checkCapacity(f, s.InTime); err != nil {
			m.Reset()
			return err
		}
	}
	return nil
}
