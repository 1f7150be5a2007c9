package registry

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"parking-iot-backend/internal/model"
)

// Registry is the immutable, validated set of facilities for a run.
// It is safe to share between concurrently running generators.
type Registry struct {
	facilities []model.Facility
	byID       map[int]int
}

// Default returns the built-in 50-facility registry.
func Default() (*Registry, error) {
	return New(nycFacilities)
}

// New validates the given facilities and builds a registry ordered by id.
func New(facilities []model.Facility) (*Registry, error) {
	cfgErr := &ConfigError{Source: "facility"}
	if len(facilities) == 0 {
		cfgErr.addf("no facilities configured")
		return nil, cfgErr
	}

	sorted := make([]model.Facility, len(facilities))
	copy(sorted, facilities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]int, len(sorted))
	for i, f := range sorted {
		if f.ID <= 0 {
			cfgErr.addf("facility %q has non-positive id %d", f.Name, f.ID)
		}
		if _, dup := byID[f.ID]; dup {
			cfgErr.addf("duplicate facility id %d", f.ID)
		}
		byID[f.ID] = i
		if f.Name == "" {
			cfgErr.addf("facility %d has an empty name", f.ID)
		}
		if !f.District.Valid() {
			cfgErr.addf("facility %d has unknown district %q", f.ID, f.District)
		}
		if f.TotalSpots <= 0 {
			cfgErr.addf("facility %d has non-positive capacity %d", f.ID, f.TotalSpots)
		}
		if f.RatePerHour <= 0 {
			cfgErr.addf("facility %d has non-positive rate %.2f", f.ID, f.RatePerHour)
		}
		switch {
		case f.BaseRate == 0:
			sorted[i].BaseRate = model.DefaultBaseRate
		case f.BaseRate < 0 || f.BaseRate > 1:
			cfgErr.addf("facility %d has base rate %.2f outside (0, 1]", f.ID, f.BaseRate)
		}
		for _, h := range f.PeakHours {
			if h < 0 || h > 23 {
				cfgErr.addf("facility %d has peak hour %d outside 0-23", f.ID, h)
			}
		}
		sorted[i].PeakHours = append([]int(nil), f.PeakHours...)
	}
	if cfgErr.HasProblems() {
		return nil, cfgErr
	}

	return &Registry{facilities: sorted, byID: byID}, nil
}

// LoadFile reads a YAML list of facilities and validates it.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open facilities file: %w", err)
	}
	defer f.Close()

	var doc struct {
		Facilities []model.Facility `yaml:"facilities"`
	}
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, &ConfigError{Source: "facility", Problems: []string{fmt.Sprintf("decode %s: %v", path, err)}}
	}
	return New(doc.Facilities)
}

// Facilities returns a copy of all facilities ordered by id.
func (r *Registry) Facilities() []model.Facility {
	out := make([]model.Facility, len(r.facilities))
	copy(out, r.facilities)
	return out
}

// Facility looks up a facility by id.
func (r *Registry) Facility(id int) (model.Facility, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Facility{}, false
	}
	return r.facilities[i], true
}

// ByDistrict returns the facilities of a district ordered by id.
func (r *Registry) ByDistrict(d model.District) []model.Facility {
	var out []model.Facility
	for _, f := range r.facilities {
		if f.District == d {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of facilities.
func (r *Registry) Len() int {
	return len(r.facilities)
}

// TotalSpots sums the capacity of every facility.
func (r *Registry) TotalSpots() int {
	total := 0
	for _, f := range r.facilities {
		total += f.TotalSpots
	}
	return total
}
