package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vintner-cli/vintner/internal/history"
	"github.com/vintner-cli/vintner/internal/pipeline"
	"github.com/vintner-cli/vintner/internal/tui"
)

// runOutcome carries the runner result across the goroutine boundary.
type runOutcome struct {
	res *pipeline.RunResult
	err error
}

// executePipeline runs a built pipeline with live progress and records the
// run in history. wrapperName may be empty for standalone pipeline files.
func executePipeline(ctx context.Context, app *appContext, p *pipeline.Pipeline, cfg pipeline.RunnerConfig, wrapperName string) error {
	if cfg.TailSize == 0 {
		cfg.TailSize = app.cfg.Run.TailBytes
	}
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = app.cfg.Run.Shell
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = time.Duration(app.cfg.Run.GracePeriodMs) * time.Millisecond
	}
	cfg.Echo = cfg.Echo || app.cfg.Run.Echo
	runner := pipeline.NewRunner(p, cfg)
	store := runner.Store()

	// Subscribe before the run starts so the view sees every event.
	events, cancelSub := store.Subscribe()
	defer cancelSub()
	snapshot := store.Snapshot()

	var hist *history.Store
	var runID string
	if app.cfg.History.Enabled {
		var err error
		hist, err = app.historyStore()
		if err != nil {
			slog.Warn("history unavailable", "error", err)
		} else {
			defer hist.Close()
			run := &history.Run{Pipeline: p.Name, Wrapper: wrapperName}
			if err := hist.CreateRun(ctx, run); err != nil {
				slog.Warn("failed to record run", "error", err)
				hist = nil
			} else {
				runID = run.ID
			}
		}
	}

	outcome := make(chan runOutcome, 1)
	go func() {
		res, err := runner.Run(ctx)
		outcome <- runOutcome{res: res, err: err}
	}()

	mode := tui.DetectMode(app.cfg.UI.Progress)
	display := tui.NewDisplay(os.Stdout, app.cfg.Run.LogLevel == "debug")
	if mode == tui.DisplayTUI {
		// The view exits when the runner closes the store.
		if _, err := tui.RunProgram(ctx, tui.NewModel(snapshot, events), app.cfg.UI.Color); err != nil && ctx.Err() == nil {
			slog.Warn("progress view failed", "error", err)
		}
	} else {
		display.Follow(snapshot, events)
	}

	out := <-outcome

	if hist != nil && out.res != nil {
		recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hist.RecordResult(recordCtx, runID, out.res); err != nil {
			slog.Warn("failed to record run result", "error", err)
		}
		if app.cfg.History.RetentionDays > 0 {
			retention := time.Duration(app.cfg.History.RetentionDays) * 24 * time.Hour
			if _, err := hist.Prune(recordCtx, retention); err != nil {
				slog.Warn("failed to prune history", "error", err)
			}
		}
	}

	if out.err != nil {
		return out.err
	}
	return reportResult(display, out.res, ctx.Err() != nil)
}

// reportResult prints the failure detail and summary, and maps the run
// status onto an exit code.
func reportResult(display *tui.Display, res *pipeline.RunResult, interrupted bool) error {
	var failed *pipeline.StepResult
	for _, step := range res.Steps {
		if step.Status == pipeline.StatusError {
			failed = step
			break
		}
	}
	if failed != nil {
		display.StepFailure(failed)
	}
	display.RunEnd(res)

	switch res.Status {
	case pipeline.StatusSuccess:
		return nil
	case pipeline.StatusCancelled:
		if failed != nil {
			return &ExitError{
				Code:    ExitStepFailed,
				Message: fmt.Sprintf("step %q failed (exit code %d)", failed.StepName, failed.ExitCode),
			}
		}
		if interrupted {
			return &ExitError{Code: ExitCancelled, Message: "run interrupted"}
		}
		return &ExitError{Code: ExitCancelled, Message: "run cancelled"}
	default:
		return &ExitError{Code: ExitStepFailed, Message: fmt.Sprintf("run finished %s", res.Status)}
	}
}
