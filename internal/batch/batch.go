package batch

import (
	"context"
	"errors"
	"fmt"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/stream"
)

// Batch is a group of records handed to a Sink in one call.
type Batch struct {
	Events   []model.ParkingEvent
	Sessions []model.ParkingSession
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Events) + len(b.Sessions)
}

// Sink persists batches. A returned count lower than b.Len() is treated as a failure.
type Sink interface {
	Flush(ctx context.Context, b Batch) (int, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, b Batch) (int, error)

// Flush calls f.
func (f SinkFunc) Flush(ctx context.Context, b Batch) (int, error) {
	return f(ctx, b)
}

// ErrPartialFlush is returned when a sink accepted fewer records than it was given.
var ErrPartialFlush = errors.New("sink accepted a partial batch")

// FlushError reports batches that could not be written after every retry.
type FlushError struct {
	Batches []Batch
	Err     error
}

// Error implements the error interface.
func (e *FlushError) Error() string {
	records := 0
	for _, b := range e.Batches {
		records += b.Len()
	}
	return fmt.Sprintf("flush failed for %d batch(es), %d record(s): %v", len(e.Batches), records, e.Err)
}

// Unwrap returns the last sink error.
func (e *FlushError) Unwrap() error {
	return e.Err
}

// take removes up to n records from the front of buf, events first.
func take(buf *Batch, n int) Batch {
	var out Batch
	ne := min(n, len(buf.Events))
	out.Events = append(out.Events, buf.Events[:ne]...)
	buf.Events = buf.Events[ne:]

	ns := min(n-ne, len(buf.Sessions))
	out.Sessions = append(out.Sessions, buf.Sessions[:ns]...)
	buf.Sessions = buf.Sessions[ns:]
	return out
}

func fromRecords(r stream.Records) Batch {
	return Batch{Events: r.Events, Sessions: r.Sessions}
}
