package stream

import (
	"github.com/google/uuid"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/occupancy"
	"parking-iot-backend/internal/rng"
)

// Records is the output of one assembly step.
type Records struct {
	Events   []model.ParkingEvent
	Sessions []model.ParkingSession
}

// Len returns the total number of records.
func (r Records) Len() int {
	return len(r.Events) + len(r.Sessions)
}

// Append adds other's records after r's.
func (r *Records) Append(other Records) {
	r.Events = append(r.Events, other.Events...)
	r.Sessions = append(r.Sessions, other.Sessions...)
}

// Options selects which session rows are emitted.
type Options struct {
	// EmitActiveSessions also emits an active session row on CAR_IN,
	// which the CAR_OUT row later replaces by session id.
	EmitActiveSessions bool
}

// Assembler turns machine transitions into event and session records. It performs no I/O.
type Assembler struct {
	src  *rng.Source
	opts Options
}

// New creates an Assembler drawing event ids from src.
func New(src *rng.Source, opts Options) *Assembler {
	return &Assembler{src: src, opts: opts}
}

// Assemble converts transitions in order.
func (a *Assembler) Assemble(transitions []occupancy.Transition) (Records, error) {
	var out Records
	for _, t := range transitions {
		id, err := uuid.NewRandomFromReader(a.src)
		if err != nil {
			return out, err
		}
		ev := model.ParkingEvent{
			EventID:             id.String(),
			EventType:           t.Type,
			SessionID:           t.Session.SessionID,
			FacilityID:          t.Session.FacilityID,
			FacilityName:        t.Session.FacilityName,
			District:            t.Session.District,
			LicensePlate:        t.Session.Plate,
			LicensePlateState:   t.Session.PlateState,
			EventTime:           t.At,
			AvailableSpotsAfter: t.AvailableAfter,
			TrafficPattern:      t.Tag,
		}

		switch t.Type {
		case model.CarIn:
			if a.opts.EmitActiveSessions {
				out.Sessions = append(out.Sessions, sessionRow(t))
			}
		case model.CarOut:
			duration, cost := t.DurationHours, t.Cost
			ev.ParkingDurationHours = &duration
			ev.Cost = &cost
			out.Sessions = append(out.Sessions, sessionRow(t))
		}
		out.Events = append(out.Events, ev)
	}
	return out, nil
}

func sessionRow(t occupancy.Transition) model.ParkingSession {
	row := model.ParkingSession{
		SessionID:         t.Session.SessionID,
		LicensePlate:      t.Session.Plate,
		LicensePlateState: t.Session.PlateState,
		FacilityID:        t.Session.FacilityID,
		FacilityName:      t.Session.FacilityName,
		District:          t.Session.District,
		InTime:            t.Session.InTime,
		RatePerHour:       t.Session.RatePerHour,
		Status:            model.SessionActive,
	}
	if t.Type == model.CarOut {
		out, duration, cost := t.At, t.DurationHours, t.Cost
		row.OutTime = &out
		row.ActualDurationHours = &duration
		row.Cost = &cost
		row.Status = model.SessionCompleted
	}
	return row
}
