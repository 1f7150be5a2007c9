package simulator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-iot-backend/internal/batch"
	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/progress"
)

func TestBackfill_Run(t *testing.T) {
	reg, tm := testDeps(t)
	sink := &memorySink{}
	store := progress.NewFileStore(filepath.Join(t.TempDir(), "progress.json"))
	notifier := &recordingNotifier{}
	bf := NewBackfill(testConfig(), reg, tm, sink, store, notifier)

	res, err := bf.Run(context.Background(), Params{Start: date(2024, 3, 1), End: date(2024, 3, 2)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Days)
	assert.False(t, res.Resumed)

	events, sessions := sink.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, res.Events, int64(len(events)))
	assert.Equal(t, res.Sessions, int64(len(sessions)))

	end := date(2024, 3, 3)
	inEvents := map[string]model.ParkingEvent{}
	for _, ev := range events {
		assert.False(t, ev.EventTime.Before(date(2024, 3, 1)))
		assert.True(t, ev.EventTime.Before(end))
		f, ok := reg.Facility(ev.FacilityID)
		require.True(t, ok)
		assert.Equal(t, f.District, ev.District)

		switch ev.EventType {
		case model.CarIn:
			assert.Nil(t, ev.Cost)
			inEvents[ev.SessionID] = ev
		case model.CarOut:
			in, ok := inEvents[ev.SessionID]
			require.True(t, ok, "CAR_OUT %s has no earlier CAR_IN", ev.SessionID)
			assert.Equal(t, in.FacilityID, ev.FacilityID)
			require.NotNil(t, ev.Cost)
			require.NotNil(t, ev.ParkingDurationHours)
			assert.InDelta(t, ev.EventTime.Sub(in.EventTime).Hours(), *ev.ParkingDurationHours, 1e-9)
			assert.InDelta(t, *ev.ParkingDurationHours*f.RatePerHour, *ev.Cost, 0.01)
		}
	}
	for _, s := range sessions {
		assert.Equal(t, model.SessionCompleted, s.Status)
		require.NotNil(t, s.OutTime)
		assert.False(t, s.OutTime.Before(s.InTime))
	}

	cp, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, progress.StatusCompleted, cp.Status)
	assert.Equal(t, "2024-03-02", cp.LastCompletedDate)
	assert.Equal(t, 2, cp.DaysCompleted)
	assert.Equal(t, 2, cp.TotalDays)
	assert.Equal(t, res.Events, cp.TotalEvents)

	assert.Equal(t, []string{"Historical generation completed"}, notifier.titles())
}

func TestBackfill_SameSeedSameOutput(t *testing.T) {
	reg, tm := testDeps(t)
	run := func() []model.ParkingEvent {
		sink := &memorySink{}
		bf := NewBackfill(testConfig(), reg, tm, sink, &progress.MemoryStore{}, nil)
		_, err := bf.Run(context.Background(), Params{Start: date(2024, 6, 1), End: date(2024, 6, 1)})
		require.NoError(t, err)
		events, _ := sink.snapshot()
		return events
	}
	assert.Equal(t, run(), run())
}

func TestBackfill_ResumeMatchesUninterruptedRun(t *testing.T) {
	reg, tm := testDeps(t)
	params := Params{Start: date(2024, 1, 1), End: date(2024, 1, 4)}

	fullSink := &memorySink{}
	_, err := NewBackfill(testConfig(), reg, tm, fullSink, &progress.MemoryStore{}, nil).Run(context.Background(), params)
	require.NoError(t, err)

	// the sink goes down once the third day starts
	failFrom := date(2024, 1, 3)
	sink := &memorySink{reject: func(b batch.Batch) bool {
		for _, ev := range b.Events {
			if !ev.EventTime.Before(failFrom) {
				return true
			}
		}
		return false
	}}
	store := &progress.MemoryStore{}
	notifier := &recordingNotifier{}
	bf := NewBackfill(testConfig(), reg, tm, sink, store, notifier)

	_, err = bf.Run(context.Background(), params)
	var flushErr *batch.FlushError
	require.True(t, errors.As(err, &flushErr), "got %v", err)

	cp, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, progress.StatusFailed, cp.Status)
	assert.Equal(t, "2024-01-02", cp.LastCompletedDate)
	assert.NotEmpty(t, cp.Error)

	sink.mu.Lock()
	sink.reject = nil
	sink.mu.Unlock()

	params.Resume = true
	res, err := bf.Run(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 2, res.Days)
	assert.Equal(t, []string{"Historical generation failed", "Historical generation completed"}, notifier.titles())

	wantEvents, wantSessions := fullSink.snapshot()
	gotEvents, gotSessions := sink.snapshot()
	assert.Equal(t, eventsByID(wantEvents), eventsByID(gotEvents))
	assert.Equal(t, sessionsByID(wantSessions), sessionsByID(gotSessions))
}

func TestBackfill_ResumeExtendsCompletedRange(t *testing.T) {
	reg, tm := testDeps(t)

	fullSink := &memorySink{}
	_, err := NewBackfill(testConfig(), reg, tm, fullSink, &progress.MemoryStore{}, nil).
		Run(context.Background(), Params{Start: date(2024, 1, 1), End: date(2024, 1, 4)})
	require.NoError(t, err)

	sink := &memorySink{}
	store := &progress.MemoryStore{}
	bf := NewBackfill(testConfig(), reg, tm, sink, store, nil)

	first, err := bf.Run(context.Background(), Params{Start: date(2024, 1, 1), End: date(2024, 1, 2)})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Days)

	res, err := bf.Run(context.Background(), Params{Start: date(2024, 1, 1), End: date(2024, 1, 4), Resume: true})
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 2, res.Days)

	events, _ := sink.snapshot()
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		_, dup := seen[ev.EventID]
		require.False(t, dup, "event %s written twice", ev.EventID)
		seen[ev.EventID] = struct{}{}
		assert.True(t, ev.EventTime.Before(date(2024, 1, 5)))
	}
	wantEvents, _ := fullSink.snapshot()
	assert.Equal(t, eventsByID(wantEvents), eventsByID(events))

	cp, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, cp.Status)
	assert.Equal(t, "2024-01-04", cp.EndDate)
	assert.Equal(t, "2024-01-04", cp.LastCompletedDate)
	assert.Equal(t, 4, cp.TotalDays)
	assert.Equal(t, 4, cp.DaysCompleted)
	assert.Equal(t, first.Events+res.Events, cp.TotalEvents)
}

func TestBackfill_ResumeIgnoresCheckpointPastNewEnd(t *testing.T) {
	reg, tm := testDeps(t)
	store := &progress.MemoryStore{}
	bf := NewBackfill(testConfig(), reg, tm, &memorySink{}, store, nil)

	_, err := bf.Run(context.Background(), Params{Start: date(2024, 1, 1), End: date(2024, 1, 3)})
	require.NoError(t, err)

	res, err := bf.Run(context.Background(), Params{Start: date(2024, 1, 1), End: date(2024, 1, 2), Resume: true})
	require.NoError(t, err)
	assert.False(t, res.Resumed)
	assert.Equal(t, 2, res.Days)
}

func eventsByID(events []model.ParkingEvent) map[string]model.ParkingEvent {
	out := make(map[string]model.ParkingEvent, len(events))
	for _, ev := range events {
		out[ev.EventID] = ev
	}
	return out
}

func sessionsByID(sessions []model.ParkingSession) map[string]model.ParkingSession {
	out := make(map[string]model.ParkingSession, len(sessions))
	for _, s := range sessions {
		out[s.SessionID] = s
	}
	return out
}

type brokenStore struct{ progress.MemoryStore }

func (b *brokenStore) Load() (*progress.Checkpoint, error) {
	return nil, &progress.CheckpointError{Op: "decode", Path: "memory", Err: errors.New("garbage")}
}

func TestBackfill_UnreadableCheckpointStartsOver(t *testing.T) {
	reg, tm := testDeps(t)
	sink := &memorySink{}
	bf := NewBackfill(testConfig(), reg, tm, sink, &brokenStore{}, nil)

	res, err := bf.Run(context.Background(), Params{Start: date(2024, 2, 1), End: date(2024, 2, 1), Resume: true})
	require.NoError(t, err)
	assert.False(t, res.Resumed)
	assert.Equal(t, 1, res.Days)
}

func TestBackfill_CancelledBetweenDays(t *testing.T) {
	reg, tm := testDeps(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &progress.MemoryStore{}
	bf := NewBackfill(testConfig(), reg, tm, &memorySink{}, store, nil)
	res, err := bf.Run(ctx, Params{Start: date(2024, 2, 1), End: date(2024, 2, 3)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Days)

	cp, err := bf.Progress()
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCancelled, cp.Status)
}

func TestBackfill_DryRunWritesNothing(t *testing.T) {
	reg, tm := testDeps(t)
	sink := &memorySink{}
	store := &progress.MemoryStore{}
	bf := NewBackfill(testConfig(), reg, tm, sink, store, nil)

	res, err := bf.Run(context.Background(), Params{Start: date(2024, 2, 1), End: date(2024, 2, 1), DryRun: true})
	require.NoError(t, err)
	assert.Positive(t, res.Events)

	events, _ := sink.snapshot()
	assert.Empty(t, events)
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved, "dry runs keep progress in memory only")
}

func TestBackfill_Validation(t *testing.T) {
	reg, tm := testDeps(t)
	bf := NewBackfill(testConfig(), reg, tm, &memorySink{}, &progress.MemoryStore{}, nil)

	_, err := bf.Run(context.Background(), Params{Start: date(2024, 2, 2), End: date(2024, 2, 1)})
	assert.ErrorIs(t, err, ErrInvalidRange)

	err = bf.Start(context.Background(), Params{})
	assert.Error(t, err)
}

func TestBackfill_StartAndClear(t *testing.T) {
	reg, tm := testDeps(t)
	store := &progress.MemoryStore{}
	bf := NewBackfill(testConfig(), reg, tm, &memorySink{}, store, nil)

	require.NoError(t, bf.Start(context.Background(), Params{Start: date(2024, 2, 1), End: date(2024, 2, 1)}))
	assert.Eventually(t, func() bool { return !bf.Running() }, 30*time.Second, 10*time.Millisecond)

	cp, err := bf.Progress()
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, cp.Status)
	assert.Nil(t, cp.Engine)

	require.NoError(t, bf.ClearProgress())
	cp, err = bf.Progress()
	require.NoError(t, err)
	assert.Equal(t, progress.StatusIdle, cp.Status)
}
