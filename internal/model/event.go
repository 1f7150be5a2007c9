package model

import "time"

// EventType distinguishes entries from exits.
type EventType string

const (
	CarIn  EventType = "CAR_IN"
	CarOut EventType = "CAR_OUT"
)

// ParkingEvent is a single write-once CAR_IN or CAR_OUT record.
// ParkingDurationHours and Cost are only set on CAR_OUT.
type ParkingEvent struct {
	EventID              string    `gorm:"primaryKey;size:36" json:"event_id"`
	EventType            EventType `gorm:"size:8;not null" json:"event_type"`
	SessionID            string    `gorm:"size:36;not null;index" json:"session_id"`
	FacilityID           int       `gorm:"not null;index" json:"facility_id"`
	FacilityName         string    `gorm:"size:128;not null" json:"facility_name"`
	District             District  `gorm:"size:32;not null" json:"district"`
	LicensePlate         string    `gorm:"size:16;not null" json:"license_plate"`
	LicensePlateState    string    `gorm:"size:8;not null" json:"license_plate_state"`
	EventTime            time.Time `gorm:"not null;index" json:"event_time"`
	AvailableSpotsAfter  int       `gorm:"not null" json:"available_spots_after"`
	ParkingDurationHours *float64  `json:"parking_duration_hours"`
	Cost                 *float64  `json:"cost"`
	TrafficPattern       string    `gorm:"size:128;not null" json:"traffic_pattern"`
}

// TableName pins the event table name.
func (ParkingEvent) TableName() string {
	return "parking_events"
}
