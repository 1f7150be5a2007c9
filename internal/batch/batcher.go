package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/stream"
)

const (
	DefaultSize       = 1000
	DefaultMaxRetries = 3
	DefaultBackoff    = 200 * time.Millisecond
	DefaultWorkers    = 2
)

// Options configures a Batcher.
type Options struct {
	Size int
	// MaxRetries is the number of retries after the first attempt. Zero means the default,
	// a negative value disables retries.
	MaxRetries int
	Backoff    time.Duration
	Workers    int
	DryRun     bool
	// OnError is called from a flush worker when a batch exhausts its retries.
	OnError func(error)
	// DiscardFailed drops failed batches after OnError instead of holding them for Sync.
	DiscardFailed bool
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// Stats counts the batcher's work.
type Stats struct {
	FlushedRecords int64 `json:"flushed_records"`
	FlushedBatches int64 `json:"flushed_batches"`
	FailedBatches  int64 `json:"failed_batches"`
	Retries        int64 `json:"retries"`
}

type job struct {
	ctx   context.Context
	batch Batch
}

// Batcher groups records into fixed-size batches and flushes them on a pool of workers,
// so flushing overlaps generation of the next tick.
type Batcher struct {
	sink Sink
	opts Options

	buf      Batch
	jobs     chan job
	inFlight sync.WaitGroup

	mu      sync.Mutex
	failed  []Batch
	lastErr error
	stats   Stats
}

// New creates a Batcher. Start must be called before records are added.
func New(sink Sink, opts Options) *Batcher {
	opts = opts.withDefaults()
	return &Batcher{
		sink: sink,
		opts: opts,
		jobs: make(chan job, opts.Workers),
	}
}

// Start launches the flush workers. They stop when ctx is done.
func (b *Batcher) Start(ctx context.Context) {
	for i := 0; i < b.opts.Workers; i++ {
		go b.worker(ctx, i)
	}
}

func (b *Batcher) worker(ctx context.Context, id int) {
	log := logger.BgLogger().With(zap.Int("flush_worker", id))
	log.Debug("flush worker started")
	for {
		select {
		case j := <-b.jobs:
			b.process(j)
		case <-ctx.Done():
			log.Debug("flush worker shutting down")
			return
		}
	}
}

// Add buffers records and dispatches every full batch.
func (b *Batcher) Add(ctx context.Context, recs stream.Records) error {
	incoming := fromRecords(recs)
	b.buf.Events = append(b.buf.Events, incoming.Events...)
	b.buf.Sessions = append(b.buf.Sessions, incoming.Sessions...)
	for b.buf.Len() >= b.opts.Size {
		if err := b.dispatch(ctx, take(&b.buf, b.opts.Size)); err != nil {
			return err
		}
	}
	return nil
}

// Flush dispatches the partially filled buffer, if any.
func (b *Batcher) Flush(ctx context.Context) error {
	if b.buf.Len() == 0 {
		return nil
	}
	return b.dispatch(ctx, take(&b.buf, b.buf.Len()))
}

// Pending returns the number of buffered, undispatched records.
func (b *Batcher) Pending() int {
	return b.buf.Len()
}

func (b *Batcher) dispatch(ctx context.Context, batch Batch) error {
	b.inFlight.Add(1)
	select {
	case b.jobs <- job{ctx: ctx, batch: batch}:
		return nil
	case <-ctx.Done():
		b.inFlight.Done()
		b.recordFailure(batch, ctx.Err())
		return ctx.Err()
	}
}

// Sync waits for every dispatched batch. It returns a *FlushError carrying the batches that
// exhausted their retries since the last Sync.
func (b *Batcher) Sync(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return &FlushError{Batches: b.drainFailed(), Err: ctx.Err()}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.failed) == 0 {
		return nil
	}
	err := &FlushError{Batches: b.failed, Err: b.lastErr}
	b.failed, b.lastErr = nil, nil
	return err
}

func (b *Batcher) drainFailed() []Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	failed := b.failed
	b.failed, b.lastErr = nil, nil
	return failed
}

// Stats returns a copy of the counters.
func (b *Batcher) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *Batcher) process(j job) {
	defer b.inFlight.Done()
	log := logger.Logger(j.ctx)

	if b.opts.DryRun {
		b.recordSuccess(j.batch.Len(), 0)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= b.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := b.opts.Backoff << (attempt - 1)
			log.Warn("retrying batch flush", zap.Int("attempt", attempt), zap.Duration("backoff", wait), zap.Error(lastErr))
			select {
			case <-time.After(wait):
			case <-j.ctx.Done():
				b.recordFailure(j.batch, j.ctx.Err())
				return
			}
		}
		n, err := b.sink.Flush(j.ctx, j.batch)
		if err == nil && n != j.batch.Len() {
			err = fmt.Errorf("%w: wrote %d of %d", ErrPartialFlush, n, j.batch.Len())
		}
		if err == nil {
			b.recordSuccess(n, attempt)
			return
		}
		lastErr = err
	}

	log.Error("batch flush failed", zap.Int("records", j.batch.Len()), zap.Error(lastErr))
	b.recordFailure(j.batch, lastErr)
}

func (b *Batcher) recordSuccess(n, retries int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.FlushedRecords += int64(n)
	b.stats.FlushedBatches++
	b.stats.Retries += int64(retries)
}

func (b *Batcher) recordFailure(batch Batch, err error) {
	b.mu.Lock()
	if !b.opts.DiscardFailed {
		b.failed = append(b.failed, batch)
		b.lastErr = err
	}
	b.stats.FailedBatches++
	onError := b.opts.OnError
	b.mu.Unlock()

	if onError != nil {
		onError(&FlushError{Batches: []Batch{batch}, Err: err})
	}
}
