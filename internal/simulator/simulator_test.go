package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parking-iot-backend/config"
	"parking-iot-backend/internal/batch"
	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/notification"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/traffic"
)

type memorySink struct {
	mu       sync.Mutex
	events   []model.ParkingEvent
	sessions []model.ParkingSession
	reject   func(b batch.Batch) bool
}

func (s *memorySink) Flush(_ context.Context, b batch.Batch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject != nil && s.reject(b) {
		return 0, errors.New("sink unavailable")
	}
	s.events = append(s.events, b.Events...)
	s.sessions = append(s.sessions, b.Sessions...)
	return b.Len(), nil
}

func (s *memorySink) snapshot() ([]model.ParkingEvent, []model.ParkingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ParkingEvent(nil), s.events...), append([]model.ParkingSession(nil), s.sessions...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notification.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice notification.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, notice := range n.notices {
		out = append(out, notice.Title)
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Generator.Seed = 42
	cfg.Historical.FlushWorkers = 1
	cfg.Historical.BatchSize = 500
	cfg.Historical.MaxRetries = 1
	cfg.Historical.Backoff = time.Millisecond
	cfg.Live.AutoStart = false
	cfg.Live.TickInterval = time.Hour
	cfg.Live.SimStep = time.Minute
	return cfg
}

func testDeps(t *testing.T) (*registry.Registry, *traffic.Model) {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	return reg, traffic.Default()
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
