package simulator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"parking-iot-backend/config"
	"parking-iot-backend/internal/batch"
	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/occupancy"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/stream"
	"parking-iot-backend/internal/traffic"
)

// RecentEventsSize bounds the live feed's in-memory event history.
const RecentEventsSize = 100

const (
	minBurstFacilities = 10
	maxBurstFacilities = 20
)

var ErrUnknownFacility = errors.New("unknown facility")

// FacilityOccupancy is one facility's row in a live snapshot.
type FacilityOccupancy struct {
	FacilityID  int            `json:"facility_id"`
	Name        string         `json:"name"`
	District    model.District `json:"district"`
	TotalSpots  int            `json:"total_spots"`
	Occupied    int            `json:"occupied"`
	Available   int            `json:"available"`
	RatePerHour float64        `json:"rate_per_hour"`
}

// DistrictOccupancy aggregates a district in a live snapshot.
type DistrictOccupancy struct {
	District   model.District `json:"district"`
	TotalSpots int            `json:"total_spots"`
	Occupied   int            `json:"occupied"`
	Available  int            `json:"available"`
}

// Snapshot is a copy of the live feed's state for observers.
type Snapshot struct {
	Running         bool                `json:"running"`
	SimTime         time.Time           `json:"sim_time"`
	Seed            uint64              `json:"seed"`
	Ticks           int64               `json:"ticks"`
	Bursts          int64               `json:"bursts"`
	Events          int64               `json:"events"`
	Sessions        int64               `json:"sessions"`
	ActiveSessions  int                 `json:"active_sessions"`
	DroppedArrivals int64               `json:"dropped_arrivals"`
	Flush           batch.Stats         `json:"flush"`
	Facilities      []FacilityOccupancy `json:"facilities"`
	Districts       []DistrictOccupancy `json:"districts"`
}

// BurstResult reports what a burst produced.
type BurstResult struct {
	Ticks      int   `json:"ticks"`
	Facilities []int `json:"facilities"`
	Events     int   `json:"events"`
	Sessions   int   `json:"sessions"`
}

// Service drives the continuous live feed.
type Service struct {
	cfg     *config.Config
	reg     *registry.Registry
	traffic *traffic.Model
	batcher *batch.Batcher
	now     func() time.Time

	stopWorkers context.CancelFunc
	closeOnce   sync.Once

	// mu serializes ticks and guards everything below.
	mu       sync.Mutex
	running  bool
	engine   *Engine
	ticks    int64
	bursts   int64
	events   int64
	sessions int64
	recent   []model.ParkingEvent
}

// NewService creates the live controller writing to sink. Its flush workers run until Close,
// so ticks can be flushed whether or not Run is looping.
func NewService(cfg *config.Config, reg *registry.Registry, tm *traffic.Model, sink batch.Sink) *Service {
	s := &Service{
		cfg:     cfg,
		reg:     reg,
		traffic: tm,
		now:     time.Now,
		running: cfg.Live.AutoStart,
	}
	s.batcher = batch.New(sink, batch.Options{
		Size:       cfg.Live.BatchSize,
		MaxRetries: cfg.Historical.MaxRetries,
		Backoff:    cfg.Historical.Backoff,
		Workers:    1,
		OnError: func(err error) {
			logger.BgLogger().Warn("live flush failed, continuing", zap.Error(err))
		},
		DiscardFailed: true,
	})
	workerCtx, stop := context.WithCancel(context.Background())
	s.stopWorkers = stop
	s.batcher.Start(workerCtx)
	s.resetLocked()
	return s
}

// Close stops the flush workers. Batches still queued are not written.
func (s *Service) Close() {
	s.closeOnce.Do(s.stopWorkers)
}

// Run paces live ticks until ctx is done, then drains the batcher and closes the service.
// The stop flag is only checked between ticks.
func (s *Service) Run(ctx context.Context) {
	ctx = logger.WithKeyValue(ctx, "run", "live")
	log := logger.Logger(ctx)
	log.Info("starting live feed", zap.Bool("running", s.isRunning()),
		zap.Duration("tick_interval", s.cfg.Live.TickInterval), zap.Duration("sim_step", s.cfg.Live.SimStep))

	timer := time.NewTimer(s.cfg.Live.TickInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("live feed shutting down")
			s.drain()
			s.Close()
			return
		case <-timer.C:
			if s.isRunning() {
				if _, err := s.TickOnce(ctx); err != nil {
					log.Error("live tick failed", zap.Error(err))
				}
			}
			timer.Reset(s.cfg.Live.TickInterval)
		}
	}
}

func (s *Service) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.batcher.Flush(ctx)
	if err == nil {
		err = s.batcher.Sync(ctx)
	}
	if err != nil {
		logger.BgLogger().Warn("live flush on shutdown", zap.Error(err))
	}
}

func (s *Service) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start resumes ticking.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// Stop pauses ticking after the current tick.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Reset discards every active session and counter and restarts the simulated clock at wall time.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Service) resetLocked() {
	seed := s.cfg.Generator.Seed
	if seed == 0 {
		seed = timeSeed()
	}
	start := s.now().UTC().Truncate(time.Second)
	s.engine = NewEngine(s.reg, s.traffic, start, EngineOptions{
		Seed:                seed,
		ArrivalsPerSpotHour: s.cfg.Generator.ArrivalsPerSpotHour,
		EmitActiveSessions:  s.cfg.Generator.EmitActiveSessions,
	})
	s.ticks, s.bursts, s.events, s.sessions = 0, 0, 0, 0
	s.recent = nil
}

// TickOnce advances the simulated clock by one live step: to wall time, or by live.sim_step
// when an accelerated clock is configured. A clock that is ahead of wall time, for example
// after a burst, waits for wall time to catch up.
func (s *Service) TickOnce(ctx context.Context) (stream.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked(ctx, s.nextTickLocked())
}

func (s *Service) nextTickLocked() time.Time {
	clock := s.engine.Clock()
	if step := s.cfg.Live.SimStep; step > 0 {
		return clock.Add(step)
	}
	if now := s.now().UTC(); now.After(clock) {
		return now
	}
	return clock
}

// Burst runs n extra ticks with boosted arrivals restricted to facilityIDs.
// When facilityIDs is empty, 10 to 20 facilities are chosen at random.
func (s *Service) Burst(ctx context.Context, n int, facilityIDs []int) (BurstResult, error) {
	if n <= 0 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range facilityIDs {
		if _, ok := s.reg.Facility(id); !ok {
			return BurstResult{}, fmt.Errorf("%w: %d", ErrUnknownFacility, id)
		}
	}
	if len(facilityIDs) == 0 {
		facilityIDs = s.pickFacilitiesLocked()
	}

	res := BurstResult{Facilities: facilityIDs}
	opts := []occupancy.TickOption{
		occupancy.OnlyFacilities(facilityIDs...),
		occupancy.ArrivalBoost(s.cfg.Live.BurstBoost),
	}
	for i := 0; i < n; i++ {
		recs, err := s.stepLocked(ctx, s.engine.Clock().Add(s.cfg.Live.BurstStep), opts...)
		if err != nil {
			return res, err
		}
		res.Ticks++
		res.Events += len(recs.Events)
		res.Sessions += len(recs.Sessions)
	}
	s.bursts++
	logger.Logger(ctx).Info("burst complete", zap.Ints("facilities", facilityIDs), zap.Int("events", res.Events))
	return res, nil
}

func (s *Service) pickFacilitiesLocked() []int {
	facilities := s.reg.Facilities()
	src := s.engine.Rand()
	count := src.Between(minBurstFacilities, maxBurstFacilities)
	if count > len(facilities) {
		count = len(facilities)
	}
	// partial Fisher-Yates over the id-ordered list
	for i := 0; i < count; i++ {
		j := i + src.IntN(len(facilities)-i)
		facilities[i], facilities[j] = facilities[j], facilities[i]
	}
	ids := make([]int, count)
	for i := range ids {
		ids[i] = facilities[i].ID
	}
	sort.Ints(ids)
	return ids
}

// stepLocked generates up to to and hands the records to the flush worker. Failed flushes are
// reported through the batcher's OnError; the tick only waits when the worker's queue is full.
func (s *Service) stepLocked(ctx context.Context, to time.Time, opts ...occupancy.TickOption) (stream.Records, error) {
	recs, err := s.engine.Step(to, opts...)
	if err != nil {
		return recs, err
	}
	s.ticks++
	s.events += int64(len(recs.Events))
	s.sessions += int64(len(recs.Sessions))
	s.remember(recs.Events)

	if err := s.batcher.Add(ctx, recs); err != nil {
		return recs, err
	}
	if err := s.batcher.Flush(ctx); err != nil {
		return recs, err
	}
	return recs, nil
}

func (s *Service) remember(events []model.ParkingEvent) {
	s.recent = append(s.recent, events...)
	if n := len(s.recent); n > RecentEventsSize {
		s.recent = append([]model.ParkingEvent(nil), s.recent[n-RecentEventsSize:]...)
	}
}

// RecentEvents returns up to limit of the latest events, newest first.
func (s *Service) RecentEvents(limit int) []model.ParkingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	out := make([]model.ParkingEvent, 0, limit)
	for i := len(s.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.recent[i])
	}
	return out
}

// Snapshot returns a copy of the live state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.engine.Machine()
	snap := Snapshot{
		Running:         s.running,
		SimTime:         s.engine.Clock(),
		Seed:            s.engine.Seed(),
		Ticks:           s.ticks,
		Bursts:          s.bursts,
		Events:          s.events,
		Sessions:        s.sessions,
		ActiveSessions:  m.ActiveCount(),
		DroppedArrivals: m.Stats().DroppedArrivals,
		Flush:           s.batcher.Stats(),
	}

	districts := map[model.District]*DistrictOccupancy{}
	for _, f := range s.reg.Facilities() {
		occupied := m.Occupied(f.ID)
		snap.Facilities = append(snap.Facilities, FacilityOccupancy{
			FacilityID:  f.ID,
			Name:        f.Name,
			District:    f.District,
			TotalSpots:  f.TotalSpots,
			Occupied:    occupied,
			Available:   f.TotalSpots - occupied,
			RatePerHour: f.RatePerHour,
		})
		d, ok := districts[f.District]
		if !ok {
			d = &DistrictOccupancy{District: f.District}
			districts[f.District] = d
		}
		d.TotalSpots += f.TotalSpots
		d.Occupied += occupied
		d.Available += f.TotalSpots - occupied
	}
	for _, name := range s.traffic.Districts() {
		if d, ok := districts[name]; ok {
			snap.Districts = append(snap.Districts, *d)
		}
	}
	return snap
}
