package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetRun returns a single run.
// Returns ErrRunNotFound if no run has the id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, count, workers, succeeded, failed, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
// Returns an empty slice (not nil) when there are no runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, count, workers, succeeded, failed, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadInvocations returns the invocations of a run ordered by index.
// Returns an empty slice (not nil) when the run has none.
func (s *Store) ReadInvocations(ctx context.Context, runID string) ([]Invocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, seq, args, status, stage, error, duration_ms
		FROM invocations
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	invocations := []Invocation{}
	for rows.Next() {
		var inv Invocation
		var argsJSON string
		var durationMS int64
		if err := rows.Scan(
			&inv.RunID, &inv.Index, &inv.Seq, &argsJSON,
			&inv.Status, &inv.Stage, &inv.Error, &durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &inv.Args); err != nil {
			return nil, fmt.Errorf("decode args of invocation %d: %w", inv.Index, err)
		}
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return invocations, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt, finishedAt string
	if err := row.Scan(
		&run.ID, &run.Name, &run.Unit, &run.Count, &run.Workers,
		&run.Succeeded, &run.Failed, &startedAt, &finishedAt,
	); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at of run %s: %w", run.ID, err)
	}
	if finishedAt != "" {
		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return Run{}, fmt.Errorf("parse finished_at of run %s: %w", run.ID, err)
		}
	}
	return run, nil
}
