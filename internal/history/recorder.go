package history

import (
	"context"

	"github.com/vintner-cli/vintner/internal/pipeline"
)

// RecordResult stores every step of a finished pipeline run and marks the
// run terminal.
func (s *Store) RecordResult(ctx context.Context, runID string, res *pipeline.RunResult) error {
	for i, step := range res.Steps {
		rec := &StepRecord{
			RunID:      runID,
			Seq:        i,
			Job:        step.JobName,
			Step:       step.StepName,
			Command:    step.Command,
			Status:     string(step.Status),
			ExitCode:   step.ExitCode,
			DurationMs: step.DurationMs,
			OutputTail: step.Tail,
		}
		if err := s.AddStep(ctx, rec); err != nil {
			return err
		}
	}
	return s.FinishRun(ctx, runID, string(res.Status), res.DurationMs)
}
