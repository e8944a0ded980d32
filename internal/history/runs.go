package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	Pipeline   string
	Wrapper    string
	Status     string
	StartedAt  int64 // unix ms
	EndedAt    int64 // unix ms, 0 while running
	DurationMs int64
}

// StepRecord is one step result within a run.
type StepRecord struct {
	RunID      string
	Seq        int
	Job        string
	Step       string
	Command    string
	Status     string
	ExitCode   int
	DurationMs int64
	OutputTail string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// CreateRun inserts a new run in the in_progress state.
func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().UnixMilli()
	}
	if run.Status == "" {
		run.Status = "in_progress"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, pipeline, wrapper, status, started_at_unix_ms)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Pipeline, run.Wrapper, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records the terminal status and timing of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string, durationMs int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, ended_at_unix_ms = ?, duration_ms = ?
		WHERE run_id = ?
	`, status, time.Now().UnixMilli(), durationMs, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// AddStep appends a step result to a run.
func (s *Store) AddStep(ctx context.Context, rec *StepRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_steps (run_id, seq, job, step, command, status, exit_code, duration_ms, output_tail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Seq, rec.Job, rec.Step, rec.Command, rec.Status, rec.ExitCode, rec.DurationMs, rec.OutputTail)
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, pipeline, wrapper, status, started_at_unix_ms, ended_at_unix_ms, duration_ms
		FROM runs WHERE run_id = ?
	`, runID)

	var run Run
	err := row.Scan(&run.ID, &run.Pipeline, &run.Wrapper, &run.Status,
		&run.StartedAt, &run.EndedAt, &run.DurationMs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, pipeline, wrapper, status, started_at_unix_ms, ended_at_unix_ms, duration_ms
		FROM runs ORDER BY started_at_unix_ms DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Pipeline, &run.Wrapper, &run.Status,
			&run.StartedAt, &run.EndedAt, &run.DurationMs); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetSteps returns the step results of a run in execution order.
func (s *Store) GetSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, job, step, command, status, exit_code, duration_ms, output_tail
		FROM run_steps WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Job, &rec.Step, &rec.Command,
			&rec.Status, &rec.ExitCode, &rec.DurationMs, &rec.OutputTail); err != nil {
			return nil, err
		}
		steps = append(steps, rec)
	}
	return steps, rows.Err()
}

// Prune deletes runs older than retention and their steps. A retention of
// zero keeps everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-retention).UnixMilli()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM run_steps WHERE run_id IN (
			SELECT run_id FROM runs WHERE started_at_unix_ms < ?
		)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to prune steps: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE started_at_unix_ms < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}
