package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tagloop/internal/harness"
)

// Run is one harness run.
type Run struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Unit       string    `json:"unit"`
	Count      int       `json:"count"`
	Workers    int       `json:"workers"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether FinishRun was recorded for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Invocation is the stored form of a harness.Record.
type Invocation struct {
	RunID    string        `json:"run_id"`
	Index    int           `json:"index"`
	Seq      int64         `json:"seq"`
	Args     []string      `json:"args"`
	Status   string        `json:"status"`
	Stage    string        `json:"stage,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// InvocationFromRecord converts a harness record for storage under runID.
func InvocationFromRecord(runID string, rec harness.Record) Invocation {
	return Invocation{
		RunID:    runID,
		Index:    rec.Index,
		Seq:      rec.Seq,
		Args:     rec.Args,
		Status:   string(rec.Status),
		Stage:    string(rec.Stage()),
		Error:    rec.ErrorMessage(),
		Duration: rec.Duration,
	}
}

// RunIDGenerator produces run ids.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids, so runs sort by
// creation time even when listed by id.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
