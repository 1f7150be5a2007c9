package traffic

import (
	"fmt"
	"strings"
	"time"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/rng"
)

// DayType classifies a calendar date for traffic purposes.
type DayType string

const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
	Holiday DayType = "holiday"
)

// Intensity is the traffic state of a district at one instant.
type Intensity struct {
	EntryRate     float64
	ExitRate      float64
	DayMultiplier float64
	DayType       DayType
	Hour          int
	PeakEntry     bool
	PeakExit      bool
	Tag           string
}

// Model maps (district, time) to traffic intensity. It is read-only after construction.
// Hours and dates are read in the model's location.
type Model struct {
	patterns map[model.District]Pattern
	holidays map[string]struct{}
	loc      *time.Location
}

// Option configures a Model.
type Option func(*Model)

// WithHolidays marks dates (YYYY-MM-DD) as holidays. Holidays use the weekend multiplier.
func WithHolidays(dates ...string) Option {
	return func(m *Model) {
		for _, d := range dates {
			m.holidays[d] = struct{}{}
		}
	}
}

// WithLocation sets the time zone in which hours and calendar dates are read. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(m *Model) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// Default returns the built-in NYC district patterns.
func Default(opts ...Option) *Model {
	m, err := New(nycPatterns, opts...)
	if err != nil {
		// built-in table is validated by tests
		panic(err)
	}
	return m
}

// New validates patterns and builds a Model. Every district needs exactly one pattern.
func New(patterns map[model.District]Pattern, opts ...Option) (*Model, error) {
	cfgErr := &registry.ConfigError{Source: "traffic pattern"}
	for d := range patterns {
		if !d.Valid() {
			cfgErr.Add("unknown district %q", d)
		}
	}
	copied := make(map[model.District]Pattern, len(model.Districts))
	for _, d := range model.Districts {
		p, ok := patterns[d]
		if !ok {
			cfgErr.Add("district %s has no pattern", d)
			continue
		}
		if p.WeekdayMult <= 0 || p.WeekendMult <= 0 {
			cfgErr.Add("district %s has non-positive day multiplier", d)
		}
		if p.EntryBoost <= 0 || p.ExitBoost <= 0 {
			cfgErr.Add("district %s has non-positive boost", d)
		}
		if p.AvgStayHours <= 0 {
			cfgErr.Add("district %s has non-positive average stay", d)
		}
		for _, h := range append(append([]int{}, p.PeakEntryHours...), p.PeakExitHours...) {
			if h < 0 || h > 23 {
				cfgErr.Add("district %s has peak hour %d outside 0..23", d, h)
			}
		}
		p.PeakEntryHours = append([]int(nil), p.PeakEntryHours...)
		p.PeakExitHours = append([]int(nil), p.PeakExitHours...)
		copied[d] = p
	}
	if cfgErr.HasProblems() {
		return nil, cfgErr
	}

	m := &Model{patterns: copied, holidays: map[string]struct{}{}, loc: time.UTC}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Districts returns all districts in their fixed order.
func (m *Model) Districts() []model.District {
	out := make([]model.District, len(model.Districts))
	copy(out, model.Districts)
	return out
}

// Pattern returns the pattern of a district.
func (m *Model) Pattern(d model.District) (Pattern, bool) {
	p, ok := m.patterns[d]
	return p, ok
}

// Location returns the time zone of the model.
func (m *Model) Location() *time.Location {
	return m.loc
}

// DayTypeOf classifies the calendar date of ts.
func (m *Model) DayTypeOf(ts time.Time) DayType {
	ts = ts.In(m.loc)
	if _, ok := m.holidays[ts.Format(time.DateOnly)]; ok {
		return Holiday
	}
	switch ts.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// Intensity returns the traffic intensity of a district at ts.
// The result, including the tag, is a pure function of (district, ts).
func (m *Model) Intensity(d model.District, ts time.Time) Intensity {
	ts = ts.In(m.loc)
	p, ok := m.patterns[d]
	if !ok {
		return Intensity{EntryRate: 0, ExitRate: 1, DayMultiplier: 1, Hour: ts.Hour(), DayType: m.DayTypeOf(ts)}
	}

	hour := ts.Hour()
	dayType := m.DayTypeOf(ts)
	mult := p.WeekdayMult
	if dayType != Weekday {
		mult = p.WeekendMult
	}

	in := Intensity{
		DayMultiplier: mult,
		DayType:       dayType,
		Hour:          hour,
		PeakEntry:     p.isPeakEntry(hour),
		PeakExit:      p.isPeakExit(hour),
		ExitRate:      1,
	}
	in.EntryRate = hourlyBase(hour) * mult
	if in.PeakEntry {
		in.EntryRate *= p.EntryBoost
	}
	if in.PeakExit {
		in.ExitRate = p.ExitBoost
	}
	in.Tag = tag(d, in)
	return in
}

func tag(d model.District, in Intensity) string {
	tags := make([]string, 0, 3)
	switch {
	case in.DayMultiplier > 1.0:
		tags = append(tags, string(in.DayType)+"_busy")
	case in.DayMultiplier < 0.5:
		tags = append(tags, string(in.DayType)+"_slow")
	default:
		tags = append(tags, string(in.DayType)+"_normal")
	}
	if in.PeakEntry {
		tags = append(tags, "peak_entry_hour")
	}
	if in.PeakExit {
		tags = append(tags, "peak_exit_hour")
	}
	return fmt.Sprintf("%s|%s|mult:%.1fx", d, strings.Join(tags, "+"), in.DayMultiplier)
}

// StayHours draws the target stay of a new session: the district average varied by ±40%.
func (m *Model) StayHours(d model.District, src *rng.Source) float64 {
	p, ok := m.patterns[d]
	if !ok {
		return 1
	}
	return p.AvgStayHours * (1 + src.Uniform(-0.4, 0.4))
}
