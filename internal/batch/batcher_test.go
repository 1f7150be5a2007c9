package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/stream"
)

type memorySink struct {
	mu      sync.Mutex
	batches []Batch
	fail    int // number of calls to fail before succeeding
	calls   int
}

func (s *memorySink) Flush(_ context.Context, b Batch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail > 0 {
		s.fail--
		return 0, errors.New("connection reset")
	}
	s.batches = append(s.batches, b)
	return b.Len(), nil
}

func (s *memorySink) records() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += b.Len()
	}
	return n
}

func records(events, sessions int) stream.Records {
	return stream.Records{
		Events:   make([]model.ParkingEvent, events),
		Sessions: make([]model.ParkingSession, sessions),
	}
}

func TestBatcher_FullBatchesAndFlush(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &memorySink{}
	b := New(sink, Options{Size: 10, Workers: 2})
	b.Start(ctx)

	require.NoError(t, b.Add(ctx, records(18, 7)))
	assert.Equal(t, 5, b.Pending())
	require.NoError(t, b.Flush(ctx))
	require.NoError(t, b.Sync(ctx))

	assert.Equal(t, 25, sink.records())
	assert.Len(t, sink.batches, 3)
	for _, batch := range sink.batches {
		assert.LessOrEqual(t, batch.Len(), 10)
	}
	assert.Equal(t, Stats{FlushedRecords: 25, FlushedBatches: 3}, b.Stats())
}

func TestBatcher_RetriesThenSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &memorySink{fail: 2}
	b := New(sink, Options{Size: 5, MaxRetries: 3, Backoff: time.Millisecond, Workers: 1})
	b.Start(ctx)

	require.NoError(t, b.Add(ctx, records(5, 0)))
	require.NoError(t, b.Sync(ctx))
	assert.Equal(t, 3, sink.calls)
	assert.Equal(t, int64(2), b.Stats().Retries)
}

func TestBatcher_RetriesExhausted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reported []error
	var mu sync.Mutex
	sink := &memorySink{fail: 100}
	b := New(sink, Options{Size: 4, MaxRetries: 2, Backoff: time.Millisecond, Workers: 1, OnError: func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}})
	b.Start(ctx)

	require.NoError(t, b.Add(ctx, records(3, 1)))
	err := b.Sync(ctx)
	var flushErr *FlushError
	require.True(t, errors.As(err, &flushErr))
	require.Len(t, flushErr.Batches, 1)
	assert.Equal(t, 4, flushErr.Batches[0].Len())
	assert.Equal(t, 3, sink.calls)
	assert.Len(t, reported, 1)

	// failures are reported once
	assert.NoError(t, b.Sync(ctx))
}

func TestBatcher_DiscardFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var reported []error
	sink := &memorySink{fail: 100}
	b := New(sink, Options{Size: 2, MaxRetries: -1, Workers: 1, DiscardFailed: true, OnError: func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}})
	b.Start(ctx)

	require.NoError(t, b.Add(ctx, records(2, 2)))
	require.NoError(t, b.Sync(ctx))
	assert.Equal(t, int64(2), b.Stats().FailedBatches)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 2)
	var flushErr *FlushError
	require.True(t, errors.As(reported[0], &flushErr))
	assert.Len(t, flushErr.Batches, 1)
}

func TestBatcher_PartialFlushIsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := SinkFunc(func(_ context.Context, b Batch) (int, error) { return b.Len() - 1, nil })
	b := New(sink, Options{Size: 3, MaxRetries: -1, Workers: 1})
	b.Start(ctx)

	require.NoError(t, b.Add(ctx, records(3, 0)))
	err := b.Sync(ctx)
	assert.ErrorIs(t, err, ErrPartialFlush)
}

func TestBatcher_DryRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &memorySink{}
	b := New(sink, Options{Size: 2, DryRun: true})
	b.Start(ctx)

	require.NoError(t, b.Add(ctx, records(3, 0)))
	require.NoError(t, b.Flush(ctx))
	require.NoError(t, b.Sync(ctx))
	assert.Zero(t, sink.calls)
	assert.Equal(t, int64(3), b.Stats().FlushedRecords)
}

func TestTake(t *testing.T) {
	buf := Batch{Events: make([]model.ParkingEvent, 3), Sessions: make([]model.ParkingSession, 3)}
	first := take(&buf, 4)
	assert.Len(t, first.Events, 3)
	assert.Len(t, first.Sessions, 1)
	assert.Equal(t, 2, buf.Len())
}
