package api

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"parking-iot-backend/internal/store"
)

func newSubscriptionServer(t *testing.T) (*testServer, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	s := newTestServer(t)
	s.handler.store = store.NewGormStore(gormDB)
	return s, mock
}

func TestPutSubscription(t *testing.T) {
	s, mock := newSubscriptionServer(t)

	w := s.do(http.MethodPut, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "push_subscriptions" ("endpoint","p256dh","auth","created_at") VALUES ($1,$2,$3,$4) ON CONFLICT ("endpoint") DO UPDATE SET "p256dh"="excluded"."p256dh","auth"="excluded"."auth"`)).
		WithArgs("https://push.example/abc", "key", "secret", Any{}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w = s.do(http.MethodPut, "/api/subscriptions", putSubscriptionRequest{Endpoint: "https://push.example/abc", P256DH: "key", Auth: "secret"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscription(t *testing.T) {
	s, mock := newSubscriptionServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/subscriptions", nil).Code)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE endpoint = $1`)).
		WithArgs("https://push.example/a%2Fb", 1).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

	w := s.do(http.MethodGet, "/api/subscriptions?endpoint=https://push.example/a%2Fb", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubscription(t *testing.T) {
	s, mock := newSubscriptionServer(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = $1`)).
		WithArgs("https://push.example/abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := s.do(http.MethodDelete, "/api/subscriptions", deleteSubscriptionRequest{Endpoint: "https://push.example/abc"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
