package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/occupancy"
	"parking-iot-backend/internal/rng"
)

var in = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func transitions() []occupancy.Transition {
	s := occupancy.Session{
		SessionID:    "11111111-1111-4111-8111-111111111111",
		FacilityID:   3,
		FacilityName: "Grand Central 42nd St",
		District:     model.Manhattan,
		Plate:        "ABC-1234",
		PlateState:   "NY",
		InTime:       in,
		RatePerHour:  32,
		StayHours:    4,
	}
	return []occupancy.Transition{
		{Type: model.CarIn, Session: s, At: in, AvailableAfter: 249, Tag: "Manhattan|weekday_busy+peak_entry_hour|mult:1.4x"},
		{Type: model.CarOut, Session: s, At: in.Add(150 * time.Minute), AvailableAfter: 250, Tag: "Manhattan|weekday_busy|mult:1.4x", DurationHours: 2.5, Cost: 80},
	}
}

func TestAssemble(t *testing.T) {
	a := New(rng.New(1), Options{})
	recs, err := a.Assemble(transitions())
	require.NoError(t, err)

	require.Len(t, recs.Events, 2)
	require.Len(t, recs.Sessions, 1, "only completed sessions by default")
	assert.Equal(t, 3, recs.Len())

	carIn, carOut := recs.Events[0], recs.Events[1]
	assert.Equal(t, model.CarIn, carIn.EventType)
	assert.Nil(t, carIn.ParkingDurationHours)
	assert.Nil(t, carIn.Cost)
	assert.Equal(t, 249, carIn.AvailableSpotsAfter)
	assert.Equal(t, "Manhattan|weekday_busy+peak_entry_hour|mult:1.4x", carIn.TrafficPattern)

	assert.Equal(t, model.CarOut, carOut.EventType)
	require.NotNil(t, carOut.ParkingDurationHours)
	assert.Equal(t, 2.5, *carOut.ParkingDurationHours)
	assert.Equal(t, 80.0, *carOut.Cost)
	assert.Equal(t, carIn.SessionID, carOut.SessionID)
	assert.NotEqual(t, carIn.EventID, carOut.EventID)

	sess := recs.Sessions[0]
	assert.Equal(t, model.SessionCompleted, sess.Status)
	require.NotNil(t, sess.OutTime)
	assert.Equal(t, in.Add(150*time.Minute), *sess.OutTime)
	assert.Equal(t, 80.0, *sess.Cost)
	assert.Equal(t, 32.0, sess.RatePerHour)
}

func TestAssemble_EmitActiveSessions(t *testing.T) {
	a := New(rng.New(1), Options{EmitActiveSessions: true})
	recs, err := a.Assemble(transitions()[:1])
	require.NoError(t, err)
	require.Len(t, recs.Sessions, 1)
	assert.Equal(t, model.SessionActive, recs.Sessions[0].Status)
	assert.Nil(t, recs.Sessions[0].OutTime)
	assert.Nil(t, recs.Sessions[0].Cost)
}

func TestAssemble_DeterministicIDs(t *testing.T) {
	a, err := New(rng.New(5), Options{}).Assemble(transitions())
	require.NoError(t, err)
	b, err := New(rng.New(5), Options{}).Assemble(transitions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRecords_Append(t *testing.T) {
	var r Records
	r.Append(Records{Events: make([]model.ParkingEvent, 2)})
	r.Append(Records{Sessions: make([]model.ParkingSession, 1)})
	assert.Equal(t, 3, r.Len())
}
