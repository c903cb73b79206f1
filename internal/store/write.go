package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tagloop/internal/harness"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BeginRun inserts a run before its first invocation.
// Succeeded and Failed are stored as given (normally zero).
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("begin run: empty run id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, name, unit, count, workers, succeeded, failed, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Name,
		run.Unit,
		run.Count,
		run.Workers,
		run.Succeeded,
		run.Failed,
		run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteRecords stores every record of a run in a single transaction.
// A record whose index is already stored for the run is ignored.
// The run must exist (foreign key constraint).
func (s *Store) WriteRecords(ctx context.Context, runID string, records []harness.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invocations
		(run_id, idx, seq, args, status, stage, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, idx) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write records: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		inv := InvocationFromRecord(runID, rec)
		argsJSON, err := marshalArgs(inv.Args)
		if err != nil {
			return fmt.Errorf("write records: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			inv.RunID, inv.Index, inv.Seq, argsJSON,
			inv.Status, inv.Stage, inv.Error, inv.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("write records: invocation %d: %w", inv.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write records: commit: %w", err)
	}
	return nil
}

// FinishRun stores the final summary of a run.
// Returns ErrRunNotFound if the run was never begun.
func (s *Store) FinishRun(ctx context.Context, runID string, summary harness.Summary, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET succeeded = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`,
		summary.Succeeded,
		summary.Failed,
		finishedAt.UTC().Format(timeLayout),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// marshalArgs encodes option tokens as a JSON array; nil becomes [].
func marshalArgs(args []string) (string, error) {
	if args == nil {
		args = []string{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
