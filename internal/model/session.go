package model

import "time"

// SessionStatus is the lifecycle state of a parking session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ParkingSession is one vehicle's stay from entry to exit.
// OutTime, ActualDurationHours and Cost stay nil while the session is active.
type ParkingSession struct {
	SessionID           string        `gorm:"primaryKey;size:36" json:"session_id"`
	LicensePlate        string        `gorm:"size:16;not null" json:"license_plate"`
	LicensePlateState   string        `gorm:"size:8;not null" json:"license_plate_state"`
	FacilityID          int           `gorm:"not null;index" json:"facility_id"`
	FacilityName        string        `gorm:"size:128;not null" json:"facility_name"`
	District            District      `gorm:"size:32;not null" json:"district"`
	InTime              time.Time     `gorm:"not null;index" json:"in_time"`
	OutTime             *time.Time    `json:"out_time"`
	ActualDurationHours *float64      `json:"actual_duration_hours"`
	RatePerHour         float64       `gorm:"not null" json:"rate_per_hour"`
	Cost                *float64      `json:"cost"`
	Status              SessionStatus `gorm:"size:16;not null" json:"status"`
}

// TableName pins the session table name.
func (ParkingSession) TableName() string {
	return "parking_sessions"
}
