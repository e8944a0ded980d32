package pipeline

import (
	"context"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses Unix shell commands")
	}
}

// step builds an inline shell step.
func step(name, command string) *Step {
	return &Step{Name: name, Command: command}
}

func singleJob(name string, steps ...*Step) *Pipeline {
	return &Pipeline{
		Name: name,
		Jobs: []*Job{{Name: "main", Steps: steps}},
	}
}

func TestRunner_EmptyPipelineSucceeds(t *testing.T) {
	p := &Pipeline{Name: "empty"}
	runner := NewRunner(p, RunnerConfig{})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.Steps)
	assert.Equal(t, StatusSuccess, p.Status)
}

func TestRunner_EmptyJobsSucceed(t *testing.T) {
	p := &Pipeline{Name: "hollow", Jobs: []*Job{{Name: "a"}, {Name: "b"}}}
	runner := NewRunner(p, RunnerConfig{})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.Steps)
}

func TestRunner_SingleStepSuccess(t *testing.T) {
	skipOnWindows(t)

	p := singleJob("P", step("S1", "echo hello"))
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, StatusSuccess, result.Steps[0].Status)
	assert.Equal(t, 0, result.Steps[0].ExitCode)
	assert.Contains(t, result.Steps[0].Tail, "hello")
	assert.Equal(t, StatusSuccess, p.Jobs[0].Steps[0].Status)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "hello")
}

func TestRunner_FailureCancelsRemainingSteps(t *testing.T) {
	skipOnWindows(t)

	p := singleJob("P",
		step("S1", "echo A"),
		step("S2", "false"),
		step("S3", "echo C"),
	)
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, StatusCancelled, p.Status)

	require.Len(t, result.Steps, 3)
	assert.Equal(t, StatusSuccess, result.Steps[0].Status)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "A")
	assert.Equal(t, StatusError, result.Steps[1].Status)
	assert.NotEqual(t, 0, result.Steps[1].ExitCode)
	assert.Equal(t, StatusCancelled, result.Steps[2].Status)
	assert.Equal(t, "", p.Jobs[0].Steps[2].Output, "cancelled step records no output")
}

func TestRunner_FailureCancelsAcrossJobs(t *testing.T) {
	skipOnWindows(t)

	p := &Pipeline{
		Name: "P",
		Jobs: []*Job{
			{Name: "first", Steps: []*Step{step("fail", "false")}},
			{Name: "second", Steps: []*Step{step("never", "echo no")}},
		},
	}
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, StatusError, p.Jobs[0].Steps[0].Status)
	assert.Equal(t, StatusCancelled, p.Jobs[1].Steps[0].Status)
}

func TestRunner_StatementFailureSkipsRestOfStep(t *testing.T) {
	skipOnWindows(t)

	p := singleJob("P", step("S", "echo one; false; echo two"))
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, StatusError, result.Steps[0].Status)
	out := p.Jobs[0].Steps[0].Output
	assert.Contains(t, out, "one")
	assert.NotContains(t, out, "two")
}

func TestRunner_ForceRunsRemainingStatements(t *testing.T) {
	skipOnWindows(t)

	forced := &Step{
		Name:    "S",
		Command: "false; echo kept",
		Options: StepOptions{Force: true},
	}
	p := singleJob("P", forced, step("after", "echo later"))
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	// Force keeps statements inside the step running, but the failed step
	// still aborts the pipeline afterwards.
	assert.Equal(t, StatusError, result.Steps[0].Status)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "kept")
	assert.Equal(t, StatusCancelled, result.Steps[1].Status)
	assert.Equal(t, StatusCancelled, result.Status)
}

func TestRunner_EnvOverlayPropagatesToLaterSteps(t *testing.T) {
	skipOnWindows(t)

	setter := &Step{
		Name:    "A",
		Command: "true",
		Options: StepOptions{Env: map[string]string{"X": "1"}},
	}
	reader := step("B", "echo X={{X}}")
	p := singleJob("P", setter, reader)
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "echo X=1", result.Steps[1].Command)
	assert.Contains(t, p.Jobs[0].Steps[1].Output, "X=1")
}

func TestRunner_PipelineEnvSeedsTemplates(t *testing.T) {
	skipOnWindows(t)

	p := singleJob("P", step("S", "echo PREFIX={{WINEPREFIX}}"))
	runner := NewRunner(p, RunnerConfig{
		WorkDir: t.TempDir(),
		Env:     map[string]string{"WINEPREFIX": "/tmp/app"},
	})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "PREFIX=/tmp/app")
	assert.Equal(t, StatusSuccess, result.Status)
}

func TestRunner_EnvReachesChildProcess(t *testing.T) {
	skipOnWindows(t)

	p := singleJob("P", step("S", `sh -c 'echo "got=$VINTNER_PROBE"'`))
	runner := NewRunner(p, RunnerConfig{
		WorkDir: t.TempDir(),
		Env:     map[string]string{"VINTNER_PROBE": "wired"},
	})

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "got=wired")
}

func TestRunner_EchoOption(t *testing.T) {
	skipOnWindows(t)

	echoed := &Step{
		Name:    "S",
		Command: "echo hi",
		Options: StepOptions{Echo: true},
	}
	p := singleJob("P", echoed)
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	out := p.Jobs[0].Steps[0].Output
	assert.Contains(t, out, "$ echo hi")
	assert.Contains(t, out, "hi\n")
}

func TestRunner_ArgvMode(t *testing.T) {
	skipOnWindows(t)

	argv := &Step{
		Name:    "S",
		Command: "/bin/echo argv mode",
		Options: StepOptions{Shell: ShellNone},
	}
	p := singleJob("P", argv)
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "argv mode")
}

func TestRunner_WorkDir(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	p := singleJob("P", step("S", "pwd"))
	runner := NewRunner(p, RunnerConfig{WorkDir: dir})

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, dir)
}

func TestRunner_ContextAlreadyCancelled(t *testing.T) {
	p := singleJob("P", step("S1", "echo a"), step("S2", "echo b"))
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)
	for _, sr := range result.Steps {
		assert.Equal(t, StatusCancelled, sr.Status)
	}
	assert.Equal(t, "", p.Jobs[0].Steps[0].Output)
}

func TestRunner_LiveEventsDuringRun(t *testing.T) {
	skipOnWindows(t)

	p := singleJob("P", step("S1", "echo live"))
	runner := NewRunner(p, RunnerConfig{WorkDir: t.TempDir()})

	events, cancel := runner.Store().Subscribe()
	defer cancel()

	var (
		mu        sync.Mutex
		collected []Event
		done      = make(chan struct{})
	)
	go func() {
		defer close(done)
		for ev := range events {
			mu.Lock()
			collected = append(collected, ev)
			mu.Unlock()
		}
	}()

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	<-done

	mu.Lock()
	defer mu.Unlock()

	var kinds []EventKind
	for _, ev := range collected {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, EventPipelineStatus)
	assert.Contains(t, kinds, EventStepStatus)
	assert.Contains(t, kinds, EventStepOutput)

	var sawOutput bool
	for _, ev := range collected {
		if ev.Kind == EventStepOutput && strings.Contains(ev.Chunk, "live") {
			sawOutput = true
		}
	}
	assert.True(t, sawOutput, "output must be observable incrementally")
}

// textOnlyAdapter simulates a shell surface that can only report results
// through the text channel, forcing the runner onto the status-marker path.
type textOnlyAdapter struct {
	mu       sync.Mutex
	commands []string
	// failOn marks statements whose probe reports a non-zero code.
	failOn map[string]int
}

func (a *textOnlyAdapter) ReportsExitCodes() bool { return false }

func (a *textOnlyAdapter) Run(_ context.Context, cmd Command, output io.Writer) (*ExecResult, error) {
	a.mu.Lock()
	a.commands = append(a.commands, cmd.Statement)
	a.mu.Unlock()

	// Behave like a shell that ran the statement and then the probe:
	// emit some output, then the marker line.
	base, hasProbe := strings.CutSuffix(cmd.Statement, "; "+probeStatement)
	if !hasProbe {
		base = cmd.Statement
	}
	_, _ = io.WriteString(output, "ran "+base+"\n")
	if hasProbe {
		code := a.failOn[base]
		_, _ = io.WriteString(output, StatusMarker+strconv.Itoa(code)+"\n")
	}
	return &ExecResult{}, nil
}

func (a *textOnlyAdapter) Spawn(context.Context, Command, io.Writer) (*Process, error) {
	return nil, io.ErrClosedPipe
}

func TestRunner_SentinelFallback(t *testing.T) {
	adapter := &textOnlyAdapter{failOn: map[string]int{"broken": 2}}
	p := singleJob("P",
		step("ok", "fine"),
		step("bad", "broken"),
		step("never", "unreached"),
	)
	runner := NewRunner(p, RunnerConfig{Shell: adapter})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, StatusSuccess, result.Steps[0].Status)
	assert.Equal(t, StatusError, result.Steps[1].Status)
	assert.Equal(t, StatusCancelled, result.Steps[2].Status)

	// The probe was appended to dispatched statements.
	require.Len(t, adapter.commands, 2)
	assert.True(t, strings.HasSuffix(adapter.commands[0], probeStatement))

	// Marker lines never reach the visible output.
	assert.Equal(t, "ran fine\n", p.Jobs[0].Steps[0].Output)
	assert.Equal(t, "ran broken\n", p.Jobs[0].Steps[1].Output)
	assert.NotContains(t, p.Jobs[0].Steps[1].Output, StatusMarker)
}

func TestRunner_SentinelFallbackSkipsProbeWhenForced(t *testing.T) {
	adapter := &textOnlyAdapter{}
	forced := &Step{Name: "S", Command: "thing", Options: StepOptions{Force: true}}
	runner := NewRunner(singleJob("P", forced), RunnerConfig{Shell: adapter})

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, adapter.commands, 1)
	assert.Equal(t, "thing", adapter.commands[0])
}

// panicAdapter triggers the runner's internal-error recovery path.
type panicAdapter struct{}

func (panicAdapter) ReportsExitCodes() bool { return true }

func (panicAdapter) Run(context.Context, Command, io.Writer) (*ExecResult, error) {
	panic("adapter blew up")
}

func (panicAdapter) Spawn(context.Context, Command, io.Writer) (*Process, error) {
	panic("adapter blew up")
}

func TestRunner_PanicRecovered(t *testing.T) {
	p := singleJob("P", step("S", "anything"))
	runner := NewRunner(p, RunnerConfig{Shell: panicAdapter{}})

	result, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error")
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, StatusError, p.Status)
}

// recordingAdapter captures every dispatched Command and reports success.
type recordingAdapter struct {
	mu       sync.Mutex
	commands []Command
}

func (a *recordingAdapter) ReportsExitCodes() bool { return true }

func (a *recordingAdapter) Run(_ context.Context, cmd Command, _ io.Writer) (*ExecResult, error) {
	a.mu.Lock()
	a.commands = append(a.commands, cmd)
	a.mu.Unlock()
	return &ExecResult{ExitCode: 0, ExitCodeKnown: true}, nil
}

func (a *recordingAdapter) Spawn(context.Context, Command, io.Writer) (*Process, error) {
	return nil, io.ErrClosedPipe
}

func TestRunner_DefaultShellApplied(t *testing.T) {
	adapter := &recordingAdapter{}
	plain := step("plain", "echo one")
	picked := &Step{
		Name:    "picked",
		Command: "echo two",
		Options: StepOptions{Shell: "bash"},
	}
	runner := NewRunner(singleJob("P", plain, picked), RunnerConfig{
		DefaultShell: "zsh",
		Shell:        adapter,
	})

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, adapter.commands, 2)
	assert.Equal(t, "zsh", adapter.commands[0].Shell)
	assert.Equal(t, "bash", adapter.commands[1].Shell)
}

func TestRunner_ConfigEchoAppliesToEveryStep(t *testing.T) {
	adapter := &recordingAdapter{}
	p := singleJob("P", step("S", "echo hi"))
	runner := NewRunner(p, RunnerConfig{Echo: true, Shell: adapter})

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, p.Jobs[0].Steps[0].Output, "$ echo hi")
}

func TestRunner_GracePeriodReachesAdapter(t *testing.T) {
	adapter := &recordingAdapter{}
	runner := NewRunner(singleJob("P", step("S", "echo hi")), RunnerConfig{
		GracePeriod: 250 * time.Millisecond,
		Shell:       adapter,
	})

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, adapter.commands, 1)
	assert.Equal(t, 250*time.Millisecond, adapter.commands[0].GracePeriod)
}

func TestCommand_GracePeriodFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultGracePeriod, Command{}.gracePeriod())
	assert.Equal(t, time.Second, Command{GracePeriod: time.Second}.gracePeriod())
}
