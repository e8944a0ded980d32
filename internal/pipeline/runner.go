package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StepResult records the outcome of one step for reporting and history.
type StepResult struct {
	JobName    string
	StepName   string
	Command    string // expanded command text
	Status     Status
	ExitCode   int
	DurationMs int64
	Tail       string
	Err        error
}

// RunResult holds the outcome of a complete pipeline run.
type RunResult struct {
	Status     Status
	Steps      []*StepResult
	DurationMs int64
}

// RunnerConfig configures a pipeline run.
type RunnerConfig struct {
	// WorkDir is the working directory for every step.
	WorkDir string
	// Env seeds the run environment (home, resource paths, wrapper paths).
	Env map[string]string
	// TailSize bounds the retained per-step output tail; 0 = DefaultTailSize.
	TailSize int
	// DefaultShell is the interpreter for steps that don't pick their own.
	// Empty keeps the platform default shell.
	DefaultShell string
	// Echo prints every statement into the captured output, as if each
	// step had set its echo option.
	Echo bool
	// GracePeriod bounds how long a cancelled statement gets between the
	// interrupt and the forced kill. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
	// Shell overrides the platform shell adapter. Nil uses the default.
	Shell ShellAdapter
}

// Runner executes one pipeline's jobs and steps strictly in sequence
// against the shell adapter, mutating the live store as it goes. A Runner
// is built for exactly one run and not reused.
type Runner struct {
	pipeline *Pipeline
	store    *Store
	shell    ShellAdapter
	env      Environment
	config   RunnerConfig
}

// NewRunner creates a runner owning the given pipeline for one run.
func NewRunner(p *Pipeline, cfg RunnerConfig) *Runner {
	if cfg.TailSize <= 0 {
		cfg.TailSize = DefaultTailSize
	}
	shell := cfg.Shell
	if shell == nil {
		shell = NewShellAdapter()
	}
	return &Runner{
		pipeline: p,
		store:    NewStore(p),
		shell:    shell,
		env:      NewEnvironment(cfg.Env),
		config:   cfg,
	}
}

// Store exposes the live state for observers (progress views, history).
func (r *Runner) Store() *Store {
	return r.store
}

// Run executes all jobs and steps in order. Once a step fails, every
// remaining step is marked cancelled without being dispatched, and the
// pipeline finishes cancelled; a run where every step succeeds (including
// the empty pipeline) finishes success. Orchestration panics are recovered
// and surfaced as an error with the pipeline left in status error.
func (r *Runner) Run(ctx context.Context) (result *RunResult, err error) {
	runStart := time.Now()
	result = &RunResult{Steps: make([]*StepResult, 0, r.pipeline.StepCount())}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("pipeline runner panicked", "pipeline", r.pipeline.Name, "panic", rec)
			r.store.SetPipelineStatus(StatusError)
			result.Status = StatusError
			err = fmt.Errorf("pipeline %q: internal error: %v", r.pipeline.Name, rec)
		}
		result.DurationMs = time.Since(runStart).Milliseconds()
		r.store.Close()
	}()

	r.store.SetPipelineStatus(StatusInProgress)
	abort := false

	for ji, job := range r.pipeline.Jobs {
		for si, step := range job.Steps {
			if ctx.Err() != nil {
				abort = true
			}
			if abort {
				// Never dispatched: cancelled, no output recorded.
				if serr := r.store.SetStepStatus(ji, si, StatusCancelled); serr != nil {
					slog.Warn("marking step cancelled", "step", step.Name, "error", serr)
				}
				result.Steps = append(result.Steps, &StepResult{
					JobName:  job.Name,
					StepName: step.Name,
					Status:   StatusCancelled,
				})
				continue
			}

			sr := r.executeStep(ctx, ji, si, job, step)
			result.Steps = append(result.Steps, sr)

			// The failing step itself reports error; only the steps after
			// it are cancelled.
			if sr.Status == StatusError || sr.Status == StatusCancelled {
				abort = true
			}
		}
	}

	final := StatusSuccess
	if abort {
		final = StatusCancelled
	}
	r.store.SetPipelineStatus(final)
	result.Status = final
	return result, nil
}

// executeStep runs a single step: environment overlay, template expansion,
// statement-by-statement execution, and status classification.
func (r *Runner) executeStep(ctx context.Context, ji, si int, job *Job, step *Step) *StepResult {
	stepStart := time.Now()
	sr := &StepResult{JobName: job.Name, StepName: step.Name}

	if err := r.store.SetStepStatus(ji, si, StatusInProgress); err != nil {
		sr.Status = StatusError
		sr.Err = err
		return sr
	}

	// Step env overlays merge into the run environment permanently, so
	// later steps see them.
	r.env.Merge(step.Options.Env)

	expanded := Expand(step.Command, r.env)
	sr.Command = expanded

	// The buffer streams cleaned output into the live store for the
	// lifetime of exactly this step; nothing else writes to it.
	buf := NewOutputBuffer(r.config.TailSize, func(chunk string) {
		r.store.AppendStepOutput(ji, si, chunk)
	})
	defer func() {
		buf.Flush()
		sr.Tail = buf.Tail()
		sr.DurationMs = time.Since(stepStart).Milliseconds()
	}()

	// The probe is only needed for adapters without structured exit
	// codes, and is skipped for force steps where failures don't gate
	// the remaining statements.
	needProbe := !r.shell.ReportsExitCodes() && !step.Options.Force

	finish := func(status Status) *StepResult {
		if err := r.store.SetStepStatus(ji, si, status); err != nil {
			slog.Warn("recording step status", "step", step.Name, "error", err)
		}
		sr.Status = status
		return sr
	}

	// The step's own shell choice wins over the run-wide default.
	shell := step.Options.Shell
	if shell == ShellDefault {
		shell = r.config.DefaultShell
	}
	echo := step.Options.Echo || r.config.Echo

	failed := false
	for _, stmt := range SplitStatements(expanded) {
		if ctx.Err() != nil {
			return finish(StatusCancelled)
		}

		if echo {
			_, _ = buf.Write([]byte("$ " + stmt + "\n"))
		}

		runStmt := stmt
		if needProbe {
			runStmt = withProbe(stmt)
		}

		res, err := r.shell.Run(ctx, Command{
			Statement:   runStmt,
			Shell:       shell,
			WorkDir:     r.config.WorkDir,
			Env:         r.env.Slice(),
			GracePeriod: r.config.GracePeriod,
		}, buf)
		if err != nil {
			if ctx.Err() != nil {
				return finish(StatusCancelled)
			}
			slog.Warn("statement failed to start", "step", step.Name, "error", err)
			sr.Err = err
			failed = true
			if !step.Options.Force {
				break
			}
			continue
		}

		if res.ExitCodeKnown {
			sr.ExitCode = res.ExitCode
		}
		buf.Flush()

		stmtFailed := res.Failed() || (!res.ExitCodeKnown && buf.MarkerFailure())
		if stmtFailed {
			failed = true
			// Force keeps the remaining statements of this step running;
			// the step still ends up reporting error.
			if !step.Options.Force {
				break
			}
		}
	}

	if ctx.Err() != nil {
		return finish(StatusCancelled)
	}

	if failed {
		return finish(StatusError)
	}
	return finish(StatusSuccess)
}
