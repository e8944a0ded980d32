package pipeline

import (
	"context"
	"io"
	"time"
)

// Shell mode selector for Command.Shell.
const (
	// ShellDefault runs the statement through the platform default shell.
	ShellDefault = ""
	// ShellNone splits the statement into argv and runs it directly.
	ShellNone = "none"
)

// Command is one statement handed to the shell adapter for execution.
type Command struct {
	// Statement is the fully expanded command text.
	Statement string
	// Shell is ShellDefault, ShellNone, or an explicit interpreter path.
	Shell string
	// WorkDir is the working directory; empty means the current directory.
	WorkDir string
	// Env is the full process environment in "KEY=value" form.
	Env []string
	// Stdin, when non-nil, is attached directly as the spawned child's
	// standard input instead of a pipe. Only Spawn honours it; Run always
	// executes with no input.
	Stdin io.Reader
	// GracePeriod bounds how long a cancelled command gets between the
	// interrupt and the forced kill. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return DefaultGracePeriod
}

// ExecResult classifies how a command exited.
type ExecResult struct {
	// ExitCode is the process exit code. Meaningful only when
	// ExitCodeKnown is true.
	ExitCode int
	// ExitCodeKnown is false for adapters that cannot observe exit codes
	// structurally; the runner then falls back to status-marker parsing.
	ExitCodeKnown bool
}

// Failed reports whether a known exit code is non-zero.
func (r *ExecResult) Failed() bool {
	return r.ExitCodeKnown && r.ExitCode != 0
}

// ShellAdapter abstracts the desktop shell the pipeline runs against.
// Run executes a command to completion, streaming combined stdout/stderr
// into output. Spawn starts a command and returns a handle exposing the
// child's standard input for interactive tools such as winecfg.
//
// A command that merely exits non-zero is reported through ExecResult,
// not through the error return; errors mean the command could not be
// built or started.
type ShellAdapter interface {
	// ReportsExitCodes is true when Run returns structured exit codes,
	// making the status-marker probe unnecessary.
	ReportsExitCodes() bool

	Run(ctx context.Context, cmd Command, output io.Writer) (*ExecResult, error)

	Spawn(ctx context.Context, cmd Command, output io.Writer) (*Process, error)
}

// Process is a handle on a spawned command.
type Process struct {
	// Stdin is the pipe to the child's standard input. Nil when the
	// command supplied its own Stdin reader.
	Stdin io.WriteCloser

	wait func(ctx context.Context) (*ExecResult, error)
}

// Wait blocks until the command settles, honouring context cancellation
// with a graceful interrupt before a forced kill.
func (p *Process) Wait(ctx context.Context) (*ExecResult, error) {
	return p.wait(ctx)
}

// NewShellAdapter creates the platform shell adapter.
func NewShellAdapter() ShellAdapter {
	return newPlatformShellAdapter()
}
