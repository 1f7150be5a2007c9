package occupancy

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownFacility = errors.New("unknown facility")
	ErrUnknownSession  = errors.New("unknown or already completed session")
)

// CapacityViolation means the active session count of a facility exceeded its capacity.
// It indicates a defect in the state machine, never a runtime condition.
type CapacityViolation struct {
	FacilityID int
	Active     int
	Capacity   int
	At         time.Time
}

// Error implements the error interface.
func (e *CapacityViolation) Error() string {
	return fmt.Sprintf("capacity violation at facility %d: %d active sessions for %d spots at %s",
		e.FacilityID, e.Active, e.Capacity, e.At.Format(time.RFC3339))
}

// TimeOrderError reports a departure earlier than its session's entry.
type TimeOrderError struct {
	SessionID string
	InTime    time.Time
	OutTime   time.Time
}

// Error implements the error interface.
func (e *TimeOrderError) Error() string {
	return fmt.Sprintf("session %s cannot leave at %s before entering at %s",
		e.SessionID, e.OutTime.Format(time.RFC3339), e.InTime.Format(time.RFC3339))
}
