package progress

import (
	"fmt"
	"time"

	"parking-iot-backend/internal/occupancy"
)

// Status is the lifecycle of a historical run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// MaxOutputLines bounds the recent output kept in a checkpoint.
const MaxOutputLines = 50

// Checkpoint is the persisted progress of a historical run.
// Dates are calendar dates formatted YYYY-MM-DD.
type Checkpoint struct {
	Status            Status    `json:"status"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	CurrentDate       string    `json:"current_date,omitempty"`
	LastCompletedDate string    `json:"last_completed_date,omitempty"`
	DaysCompleted     int       `json:"days_completed"`
	TotalDays         int       `json:"total_days"`
	TotalEvents       int64     `json:"total_events"`
	TotalSessions     int64     `json:"total_sessions"`
	LastUpdate        time.Time `json:"last_update"`
	OutputLines       []string  `json:"output_lines,omitempty"`
	Error             string    `json:"error,omitempty"`

	Engine *EngineState `json:"engine,omitempty"`
}

// EngineState is what a resumed run needs to continue exactly where it stopped.
type EngineState struct {
	Seed     uint64              `json:"seed"`
	Clock    time.Time           `json:"clock"`
	RNG      []byte              `json:"rng"`
	Sessions []occupancy.Session `json:"sessions"`
}

// AddOutput appends a line, keeping only the most recent MaxOutputLines.
func (c *Checkpoint) AddOutput(line string) {
	c.OutputLines = append(c.OutputLines, line)
	if n := len(c.OutputLines); n > MaxOutputLines {
		c.OutputLines = append([]string(nil), c.OutputLines[n-MaxOutputLines:]...)
	}
}

// ResumableFor reports whether a run over [start, end] can continue from the checkpoint.
// The start must match and the completed prefix must lie within the range, so a
// finished run can later be extended to a later end date.
func (c *Checkpoint) ResumableFor(start, end string) bool {
	return c != nil && c.StartDate == start && c.LastCompletedDate != "" && c.LastCompletedDate <= end
}

// Clone returns a deep copy safe to hand to observers.
func (c Checkpoint) Clone() Checkpoint {
	c.OutputLines = append([]string(nil), c.OutputLines...)
	if c.Engine != nil {
		e := *c.Engine
		e.RNG = append([]byte(nil), e.RNG...)
		e.Sessions = append([]occupancy.Session(nil), e.Sessions...)
		c.Engine = &e
	}
	return c
}

// CheckpointError reports an unreadable or unwritable progress store.
type CheckpointError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}
