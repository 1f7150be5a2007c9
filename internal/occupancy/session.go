package occupancy

import (
	"time"

	"parking-iot-backend/internal/model"
)

// Session is an active parking session tracked by the machine.
type Session struct {
	SessionID    string         `json:"session_id"`
	FacilityID   int            `json:"facility_id"`
	FacilityName string         `json:"facility_name"`
	District     model.District `json:"district"`
	Plate        string         `json:"license_plate"`
	PlateState   string         `json:"license_plate_state"`
	InTime       time.Time      `json:"in_time"`
	RatePerHour  float64        `json:"rate_per_hour"`
	StayHours    float64        `json:"stay_hours"`
}

// Transition is one admitted change of occupancy: a CAR_IN or a CAR_OUT.
type Transition struct {
	Type           model.EventType
	Session        Session
	At             time.Time
	AvailableAfter int
	Tag            string

	// set for CAR_OUT only
	DurationHours float64
	Cost          float64
}

// Stats counts what the machine has done since creation or the last Reset.
type Stats struct {
	Arrivals        int64 `json:"arrivals"`
	Departures      int64 `json:"departures"`
	DroppedArrivals int64 `json:"dropped_arrivals"`
}
