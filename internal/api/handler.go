package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/progress"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/simulator"
	"parking-iot-backend/internal/store"
	"parking-iot-backend/internal/traffic"
)

// LiveController is the part of the live feed the API drives.
type LiveController interface {
	Start()
	Stop()
	Reset()
	Burst(ctx context.Context, n int, facilityIDs []int) (simulator.BurstResult, error)
	Snapshot() simulator.Snapshot
	RecentEvents(limit int) []model.ParkingEvent
}

// HistoricalController is the part of the backfill controller the API drives.
type HistoricalController interface {
	Start(ctx context.Context, p simulator.Params) error
	Running() bool
	Progress() (progress.Checkpoint, error)
	ClearProgress() error
}

// Deps holds what the handlers need. Live and Historical may be nil when the mode is disabled.
type Deps struct {
	Store      store.Store
	WebPush    *webpush.Options
	Registry   *registry.Registry
	Traffic    *traffic.Model
	Live       LiveController
	Historical HistoricalController
	// RunContext bounds historical runs started over HTTP, which outlive their request.
	RunContext context.Context
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	webpush    *webpush.Options
	registry   *registry.Registry
	traffic    *traffic.Model
	live       LiveController
	historical HistoricalController
	runCtx     context.Context
	now        func() time.Time

	// set by NewRouter to drop cached responses after state changes
	onLiveChange       func()
	onHistoricalChange func()
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	runCtx := d.RunContext
	if runCtx == nil {
		runCtx = context.Background()
	}
	return &Handler{
		store:      d.Store,
		webpush:    d.WebPush,
		registry:   d.Registry,
		traffic:    d.Traffic,
		live:       d.Live,
		historical: d.Historical,
		runCtx:     runCtx,
		now:        time.Now,

		onLiveChange:       func() {},
		onHistoricalChange: func() {},
	}
}
