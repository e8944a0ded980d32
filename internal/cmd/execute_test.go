//go:build !windows

package cmd

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintner-cli/vintner/internal/pipeline"
)

func testApp(t *testing.T) *appContext {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	app, err := newAppContext()
	require.NoError(t, err)
	return app
}

func inlinePipeline(t *testing.T, name string, commands ...string) *pipeline.Pipeline {
	t.Helper()
	job := &pipeline.Job{Name: "job"}
	for i, command := range commands {
		step, err := pipeline.BuildStep(
			string(rune('a'+i)), pipeline.Inline(command), pipeline.StepOptions{}, nil)
		require.NoError(t, err)
		job.Steps = append(job.Steps, step)
	}
	return &pipeline.Pipeline{Name: name, Jobs: []*pipeline.Job{job}}
}

func TestExecutePipelineSuccessRecordsHistory(t *testing.T) {
	app := testApp(t)
	p := inlinePipeline(t, "demo", "echo hi")

	err := executePipeline(context.Background(), app, p, pipeline.RunnerConfig{}, "wrap")
	require.NoError(t, err)

	store, err := app.historyStore()
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "demo", runs[0].Pipeline)
	assert.Equal(t, "wrap", runs[0].Wrapper)
	assert.Equal(t, "success", runs[0].Status)

	steps, err := store.GetSteps(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "success", steps[0].Status)
}

func TestExecutePipelineFailureExitCode(t *testing.T) {
	app := testApp(t)
	p := inlinePipeline(t, "failing", "false", "echo never")

	err := executePipeline(context.Background(), app, p, pipeline.RunnerConfig{}, "")
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitStepFailed, exitErr.Code)

	store, err := app.historyStore()
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cancelled", runs[0].Status)
}

func TestExecutePipelineHistoryDisabled(t *testing.T) {
	app := testApp(t)
	app.cfg.History.Enabled = false
	p := inlinePipeline(t, "quiet", "echo hi")

	require.NoError(t, executePipeline(context.Background(), app, p, pipeline.RunnerConfig{}, ""))

	store, err := app.historyStore()
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// captureAdapter records dispatched commands without running anything.
type captureAdapter struct {
	mu       sync.Mutex
	commands []pipeline.Command
}

func (a *captureAdapter) ReportsExitCodes() bool { return true }

func (a *captureAdapter) Run(_ context.Context, cmd pipeline.Command, _ io.Writer) (*pipeline.ExecResult, error) {
	a.mu.Lock()
	a.commands = append(a.commands, cmd)
	a.mu.Unlock()
	return &pipeline.ExecResult{ExitCode: 0, ExitCodeKnown: true}, nil
}

func (a *captureAdapter) Spawn(context.Context, pipeline.Command, io.Writer) (*pipeline.Process, error) {
	return nil, errors.New("not spawnable")
}

func TestExecutePipelineAppliesRunConfig(t *testing.T) {
	app := testApp(t)
	app.cfg.Run.Shell = "bash"
	app.cfg.Run.GracePeriodMs = 1250
	app.cfg.Run.Echo = true

	adapter := &captureAdapter{}
	p := inlinePipeline(t, "configured", "echo hi")

	err := executePipeline(context.Background(), app, p, pipeline.RunnerConfig{Shell: adapter}, "")
	require.NoError(t, err)

	require.Len(t, adapter.commands, 1)
	assert.Equal(t, "bash", adapter.commands[0].Shell)
	assert.Equal(t, 1250*time.Millisecond, adapter.commands[0].GracePeriod)

	// The echoed statement lands in the recorded output tail.
	store, err := app.historyStore()
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	steps, err := store.GetSteps(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Contains(t, steps[0].OutputTail, "$ echo hi")
}
