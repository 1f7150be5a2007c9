package model

import "time"

// District is one of the geographic groupings of facilities sharing traffic behavior.
type District string

const (
	Manhattan    District = "Manhattan"
	Brooklyn     District = "Brooklyn"
	Queens       District = "Queens"
	Bronx        District = "Bronx"
	StatenIsland District = "Staten_Island"
	Airport      District = "Airport"
)

// Districts lists every district in display order.
var Districts = []District{Manhattan, Brooklyn, Queens, Bronx, StatenIsland, Airport}

// Valid reports whether d is one of the known districts.
func (d District) Valid() bool {
	for _, known := range Districts {
		if d == known {
			return true
		}
	}
	return false
}

// DefaultBaseRate is the demand weight of a facility that does not set one.
const DefaultBaseRate = 0.7

// Facility represents a parking structure with a fixed capacity and hourly rate.
// BaseRate weighs its demand against the district average and PeakHours lists the
// local hours in which its entries run hotter than the district curve alone.
type Facility struct {
	ID          int       `gorm:"column:facility_id;primaryKey;autoIncrement:false" json:"facility_id" yaml:"id"`
	Name        string    `gorm:"size:128;not null" json:"name" yaml:"name"`
	District    District  `gorm:"size:32;not null;index" json:"district" yaml:"district"`
	TotalSpots  int       `gorm:"not null" json:"total_spots" yaml:"spots"`
	RatePerHour float64   `gorm:"not null" json:"rate_per_hour" yaml:"rate"`
	BaseRate    float64   `gorm:"not null;default:0.7" json:"base_rate" yaml:"base_rate"`
	PeakHours   []int     `gorm:"serializer:json" json:"peak_hours" yaml:"peak_hours"`
	CreatedAt   time.Time `json:"-" yaml:"-"`
}

// IsPeak reports whether hour is one of the facility's peak hours.
func (f Facility) IsPeak(hour int) bool {
	for _, h := range f.PeakHours {
		if h == hour {
			return true
		}
	}
	return false
}

// TableName pins the facility table name.
func (Facility) TableName() string {
	return "parking_facilities"
}
