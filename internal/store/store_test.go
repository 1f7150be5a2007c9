package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"parking-iot-backend/internal/batch"
	"parking-iot-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func sampleBatch() batch.Batch {
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	out := in.Add(2 * time.Hour)
	duration, cost := 2.0, 70.0
	return batch.Batch{
		Events: []model.ParkingEvent{
			{EventID: "e-1", EventType: model.CarIn, SessionID: "s-1", FacilityID: 1, FacilityName: "Times Square 44th St",
				District: model.Manhattan, LicensePlate: "ABC-1234", LicensePlateState: "NY", EventTime: in,
				AvailableSpotsAfter: 199, TrafficPattern: "Manhattan|weekday_busy+peak_entry_hour|mult:1.4x"},
			{EventID: "e-2", EventType: model.CarOut, SessionID: "s-1", FacilityID: 1, FacilityName: "Times Square 44th St",
				District: model.Manhattan, LicensePlate: "ABC-1234", LicensePlateState: "NY", EventTime: out,
				AvailableSpotsAfter: 200, ParkingDurationHours: &duration, Cost: &cost, TrafficPattern: "Manhattan|weekday_busy|mult:1.4x"},
		},
		Sessions: []model.ParkingSession{
			{SessionID: "s-1", LicensePlate: "ABC-1234", LicensePlateState: "NY", FacilityID: 1, FacilityName: "Times Square 44th St",
				District: model.Manhattan, InTime: in, OutTime: &out, ActualDurationHours: &duration, RatePerHour: 35, Cost: &cost,
				Status: model.SessionCompleted},
		},
	}
}

func TestGormStore_Flush(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedCount    int
		expectedErr      bool
	}{
		{
			name: "writes events and sessions in one transaction",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parking_events"`) + `.*ON CONFLICT DO NOTHING`).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parking_sessions"`)+`.*ON CONFLICT \("session_id"\) DO UPDATE SET .*WHERE "parking_sessions"."status" = `).
					WithArgs("s-1", "ABC-1234", "NY", 1, "Times Square 44th St", model.Manhattan, Any{}, Any{}, 2.0, 35.0, 70.0, model.SessionCompleted, "active").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedCount: 3,
		},
		{
			name: "rolls back when the session upsert fails",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parking_events"`)).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parking_sessions"`)).
					WillReturnError(errors.New("deadlock detected"))
				mock.ExpectRollback()
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)
			tc.mockExpectations(mock)

			n, err := store.Flush(context.Background(), sampleBatch())
			if tc.expectedErr {
				assert.Error(t, err)
				assert.Zero(t, n)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedCount, n)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_FlushEmptyBatch(t *testing.T) {
	gormDB, mock := newTestDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := NewGormStore(gormDB).Flush(context.Background(), batch.Batch{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpsertFacilities(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parking_facilities" ("facility_id","name","district","total_spots","rate_per_hour","base_rate","peak_hours","created_at") VALUES ($1,$2,$3,$4,$5,$6,$7,$8),($9,$10,$11,$12,$13,$14,$15,$16) ON CONFLICT ("facility_id") DO UPDATE SET`)).
		WithArgs(1, "Times Square 44th St", model.Manhattan, 200, 35.0, 0.95, Any{}, Any{}, 42, "Staten Island Mall", model.StatenIsland, 400, 1.0, 0.8, Any{}, Any{}).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.UpsertFacilities(context.Background(), []model.Facility{
		{ID: 1, Name: "Times Square 44th St", District: model.Manhattan, TotalSpots: 200, RatePerHour: 35, BaseRate: 0.95, PeakHours: []int{10, 11, 12}},
		{ID: 42, Name: "Staten Island Mall", District: model.StatenIsland, TotalSpots: 400, RatePerHour: 1, BaseRate: 0.8, PeakHours: []int{11, 12}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, store.UpsertFacilities(context.Background(), nil))
}

func TestLatestSessions(t *testing.T) {
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	out := in.Add(time.Hour)
	sessions := []model.ParkingSession{
		{SessionID: "a", InTime: in, Status: model.SessionActive},
		{SessionID: "b", InTime: in, Status: model.SessionActive},
		{SessionID: "a", InTime: in, OutTime: &out, Status: model.SessionCompleted},
		{SessionID: "b", InTime: in, Status: model.SessionActive},
	}

	got := latestSessions(sessions)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SessionID)
	assert.Equal(t, model.SessionCompleted, got[0].Status)
	assert.Equal(t, "b", got[1].SessionID)

	// a late active row never replaces the completed one
	got = latestSessions([]model.ParkingSession{sessions[2], sessions[0]})
	require.Len(t, got, 1)
	assert.Equal(t, model.SessionCompleted, got[0].Status)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
