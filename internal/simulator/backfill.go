package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"parking-iot-backend/config"
	"parking-iot-backend/internal/batch"
	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/notification"
	"parking-iot-backend/internal/progress"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/traffic"
)

var (
	ErrAlreadyRunning = errors.New("a historical run is already in progress")
	ErrInvalidRange   = errors.New("end date is before start date")
)

// Notifier receives run completion notices.
type Notifier interface {
	Notify(ctx context.Context, n notification.Notice)
}

// Params describes one historical run. Start and End are calendar dates, both inclusive.
type Params struct {
	Start     time.Time
	End       time.Time
	BatchSize int
	DryRun    bool
	Resume    bool
	// Seed overrides generator.seed when non-zero.
	Seed uint64
}

// Result summarizes a finished run.
type Result struct {
	Days     int           `json:"days"`
	Events   int64         `json:"events"`
	Sessions int64         `json:"sessions"`
	Resumed  bool          `json:"resumed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Backfill generates a historical date range day by day, checkpointing after every day.
type Backfill struct {
	cfg      *config.Config
	reg      *registry.Registry
	traffic  *traffic.Model
	sink     batch.Sink
	store    progress.Store
	notifier Notifier
	now      func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	current *progress.Checkpoint
}

// NewBackfill creates the historical controller. notifier may be nil.
func NewBackfill(cfg *config.Config, reg *registry.Registry, tm *traffic.Model, sink batch.Sink, store progress.Store, notifier Notifier) *Backfill {
	return &Backfill{
		cfg:      cfg,
		reg:      reg,
		traffic:  tm,
		sink:     sink,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Running reports whether a run is in progress.
func (b *Backfill) Running() bool {
	return b.running.Load()
}

// Run generates the range synchronously.
func (b *Backfill) Run(ctx context.Context, p Params) (Result, error) {
	if !b.running.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRunning
	}
	defer b.running.Store(false)
	return b.run(ctx, p)
}

// Start launches the run on its own goroutine and returns once it is accepted.
func (b *Backfill) Start(ctx context.Context, p Params) error {
	if err := b.validate(p); err != nil {
		return err
	}
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	go func() {
		defer b.running.Store(false)
		if _, err := b.run(ctx, p); err != nil {
			logger.Logger(ctx).Error("historical run ended with error", zap.Error(err))
		}
	}()
	return nil
}

func (b *Backfill) validate(p Params) error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if b.day(p.End).Before(b.day(p.Start)) {
		return ErrInvalidRange
	}
	return nil
}

// day returns local midnight of t's calendar date.
func (b *Backfill) day(t time.Time) time.Time {
	loc := b.traffic.Location()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Progress returns the current run's checkpoint, or the stored one when no run happened
// in this process.
func (b *Backfill) Progress() (progress.Checkpoint, error) {
	b.mu.RLock()
	if b.current != nil {
		c := b.current.Clone()
		b.mu.RUnlock()
		c.Engine = nil
		return c, nil
	}
	b.mu.RUnlock()

	stored, err := b.store.Load()
	if err != nil {
		return progress.Checkpoint{}, err
	}
	if stored == nil {
		return progress.Checkpoint{Status: progress.StatusIdle}, nil
	}
	stored.Engine = nil
	return *stored, nil
}

// ClearProgress removes the stored checkpoint. It fails while a run is in progress.
func (b *Backfill) ClearProgress() error {
	if b.running.Load() {
		return ErrAlreadyRunning
	}
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
	return b.store.Clear()
}

func (b *Backfill) publish(c *progress.Checkpoint) {
	cp := c.Clone()
	b.mu.Lock()
	b.current = &cp
	b.mu.Unlock()
}

func (b *Backfill) run(ctx context.Context, p Params) (Result, error) {
	if err := b.validate(p); err != nil {
		return Result{}, err
	}
	started := b.now()
	start, end := b.day(p.Start), b.day(p.End)
	startStr, endStr := start.Format(time.DateOnly), end.Format(time.DateOnly)
	ctx = logger.WithKeyValue(ctx, "range", startStr+".."+endStr)
	log := logger.Logger(ctx)

	store := b.store
	if p.DryRun {
		store = &progress.MemoryStore{}
	}

	seed := p.Seed
	if seed == 0 {
		seed = b.cfg.Generator.Seed
	}
	if seed == 0 {
		seed = timeSeed()
	}
	opts := EngineOptions{
		Seed:                seed,
		ArrivalsPerSpotHour: b.cfg.Generator.ArrivalsPerSpotHour,
		EmitActiveSessions:  b.cfg.Generator.EmitActiveSessions,
	}
	engine := NewEngine(b.reg, b.traffic, start.UTC(), opts)

	cp := &progress.Checkpoint{
		Status:    progress.StatusRunning,
		StartDate: startStr,
		EndDate:   endStr,
		TotalDays: daysBetween(start, end) + 1,
	}
	day := start
	result := Result{}

	if p.Resume {
		if resumed, next := b.resume(ctx, store, engine, cp, startStr, endStr); resumed {
			day = next
			result.Resumed = true
		} else {
			// a failed restore may have touched the engine
			engine = NewEngine(b.reg, b.traffic, start.UTC(), opts)
		}
	}
	cp.Status = progress.StatusRunning
	cp.Error = ""

	size := p.BatchSize
	if size <= 0 {
		size = b.cfg.Historical.BatchSize
	}
	batchCtx, cancelBatch := context.WithCancel(ctx)
	defer cancelBatch()
	batcher := batch.New(b.sink, batch.Options{
		Size:       size,
		MaxRetries: b.cfg.Historical.MaxRetries,
		Backoff:    b.cfg.Historical.Backoff,
		Workers:    b.cfg.Historical.FlushWorkers,
		DryRun:     p.DryRun,
	})
	batcher.Start(batchCtx)

	log.Info("historical run starting",
		zap.Uint64("seed", seed), zap.Int("total_days", cp.TotalDays),
		zap.Bool("resumed", result.Resumed), zap.Bool("dry_run", p.DryRun))
	cp.AddOutput(fmt.Sprintf("Generating %s to %s (%d days)", startStr, endStr, cp.TotalDays))
	b.save(ctx, store, cp)

	for ; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			cp.Status = progress.StatusCancelled
			cp.Error = err.Error()
			cp.AddOutput("Cancelled before " + day.Format(time.DateOnly))
			b.save(ctx, store, cp)
			return b.finish(result, cp, started), err
		}

		dayStr := day.Format(time.DateOnly)
		cp.CurrentDate = dayStr
		b.publish(cp)

		events, sessions, err := b.generateDay(ctx, engine, batcher, day)
		if err == nil {
			if err = batcher.Flush(ctx); err == nil {
				err = batcher.Sync(ctx)
			}
		}
		if err != nil {
			return b.fail(ctx, store, cp, result, started, dayStr, err)
		}

		state, err := engine.State()
		if err != nil {
			return b.fail(ctx, store, cp, result, started, dayStr, err)
		}
		cp.Engine = state
		cp.LastCompletedDate = dayStr
		cp.DaysCompleted++
		cp.TotalEvents += events
		cp.TotalSessions += sessions
		result.Days++
		result.Events += events
		result.Sessions += sessions
		cp.AddOutput(fmt.Sprintf("%s: %d events, %d sessions, %d active", dayStr, events, sessions, engine.Machine().ActiveCount()))
		b.save(ctx, store, cp)

		log.Info("day complete", zap.String("date", dayStr), zap.Int64("events", events),
			zap.Int64("sessions", sessions), zap.Int("days_completed", cp.DaysCompleted))
	}

	cp.Status = progress.StatusCompleted
	cp.CurrentDate = ""
	cp.AddOutput(fmt.Sprintf("Completed: %d events, %d sessions", cp.TotalEvents, cp.TotalSessions))
	b.save(ctx, store, cp)
	b.notify(ctx, notification.Notice{
		Title: "Historical generation completed",
		Body:  fmt.Sprintf("%s to %s: %d events, %d sessions", startStr, endStr, cp.TotalEvents, cp.TotalSessions),
		Tag:   "historical",
	})
	log.Info("historical run completed", zap.Int64("events", cp.TotalEvents), zap.Int64("sessions", cp.TotalSessions))
	return b.finish(result, cp, started), nil
}

// resume restores engine state from a checkpoint with the same start date and returns the next day
// to generate. The end date and day total stay those of the new range.
func (b *Backfill) resume(ctx context.Context, store progress.Store, engine *Engine, cp *progress.Checkpoint, startStr, endStr string) (bool, time.Time) {
	log := logger.Logger(ctx)
	saved, err := store.Load()
	if err != nil {
		log.Warn("checkpoint unreadable, starting from the beginning of the range", zap.Error(err))
		return false, time.Time{}
	}
	if saved == nil || !saved.ResumableFor(startStr, endStr) || saved.Engine == nil {
		log.Info("no matching checkpoint, starting from the beginning of the range")
		return false, time.Time{}
	}
	if saved.EndDate != endStr {
		log.Info("extending checkpointed range", zap.String("previous_end_date", saved.EndDate))
	}
	last, err := time.ParseInLocation(time.DateOnly, saved.LastCompletedDate, b.traffic.Location())
	if err != nil {
		log.Warn("checkpoint has a bad last_completed_date, starting over", zap.Error(err))
		return false, time.Time{}
	}
	if err := engine.Restore(saved.Engine); err != nil {
		log.Warn("checkpoint engine state unusable, starting over", zap.Error(err))
		return false, time.Time{}
	}

	cp.LastCompletedDate = saved.LastCompletedDate
	cp.DaysCompleted = saved.DaysCompleted
	cp.TotalEvents = saved.TotalEvents
	cp.TotalSessions = saved.TotalSessions
	cp.OutputLines = saved.OutputLines
	cp.Engine = saved.Engine
	next := last.AddDate(0, 0, 1)
	cp.AddOutput("Resuming from " + next.Format(time.DateOnly))
	log.Info("resuming from checkpoint", zap.String("last_completed_date", saved.LastCompletedDate))
	return true, next
}

func (b *Backfill) generateDay(ctx context.Context, engine *Engine, batcher *batch.Batcher, day time.Time) (events, sessions int64, err error) {
	step := b.cfg.Historical.TickStep
	dayEnd := day.AddDate(0, 0, 1).UTC()
	for ts := day.UTC(); ts.Before(dayEnd); {
		next := ts.Add(step)
		if next.After(dayEnd) {
			next = dayEnd
		}
		recs, err := engine.Step(next)
		if err != nil {
			return events, sessions, err
		}
		if err := batcher.Add(ctx, recs); err != nil {
			return events, sessions, err
		}
		events += int64(len(recs.Events))
		sessions += int64(len(recs.Sessions))
		ts = next
	}
	return events, sessions, nil
}

func (b *Backfill) fail(ctx context.Context, store progress.Store, cp *progress.Checkpoint, result Result, started time.Time, dayStr string, err error) (Result, error) {
	cp.Status = progress.StatusFailed
	if errors.Is(err, context.Canceled) {
		cp.Status = progress.StatusCancelled
	}
	cp.Error = err.Error()
	cp.AddOutput(fmt.Sprintf("Failed on %s: %v", dayStr, err))
	b.save(ctx, store, cp)
	b.notify(ctx, notification.Notice{
		Title: "Historical generation failed",
		Body:  fmt.Sprintf("%s to %s stopped on %s: %v", cp.StartDate, cp.EndDate, dayStr, err),
		Tag:   "historical",
	})
	logger.Logger(ctx).Error("historical run failed", zap.String("date", dayStr), zap.Error(err))
	return b.finish(result, cp, started), fmt.Errorf("generate %s: %w", dayStr, err)
}

func (b *Backfill) finish(result Result, cp *progress.Checkpoint, started time.Time) Result {
	b.publish(cp)
	result.Elapsed = b.now().Sub(started)
	return result
}

// save persists the checkpoint. A failed write is logged; generation continues and a later
// resume regenerates from the last checkpoint that did land.
func (b *Backfill) save(ctx context.Context, store progress.Store, cp *progress.Checkpoint) {
	cp.LastUpdate = b.now().UTC()
	b.publish(cp)
	if err := store.Save(cp); err != nil {
		logger.Logger(ctx).Warn("save checkpoint", zap.Error(err))
	}
}

func (b *Backfill) notify(ctx context.Context, n notification.Notice) {
	if b.notifier != nil {
		b.notifier.Notify(context.WithoutCancel(ctx), n)
	}
}

func daysBetween(start, end time.Time) int {
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
