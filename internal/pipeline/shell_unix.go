//go:build !windows

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/google/shlex"
)

type unixShellAdapter struct {
	control processControl
}

func newPlatformShellAdapter() ShellAdapter {
	return &unixShellAdapter{control: newProcessControl()}
}

func (a *unixShellAdapter) ReportsExitCodes() bool { return true }

// buildCmd translates a Command into an exec.Cmd. Argv mode splits with
// POSIX shlex rules and bypasses the shell entirely; the other modes hand
// the statement to an interpreter with -c.
func (a *unixShellAdapter) buildCmd(ctx context.Context, cmd Command) (*exec.Cmd, error) {
	if cmd.Statement == "" {
		return nil, errors.New("empty command statement")
	}

	var ec *exec.Cmd
	switch cmd.Shell {
	case ShellNone:
		argv, err := shlex.Split(cmd.Statement)
		if err != nil {
			return nil, fmt.Errorf("splitting command: %w", err)
		}
		if len(argv) == 0 {
			return nil, errors.New("command produced empty argv")
		}
		ec = exec.CommandContext(ctx, argv[0], argv[1:]...)
	case ShellDefault:
		ec = exec.CommandContext(ctx, "/bin/sh", "-c", cmd.Statement)
	default:
		ec = exec.CommandContext(ctx, cmd.Shell, "-c", cmd.Statement)
	}

	ec.Dir = cmd.WorkDir
	ec.Env = cmd.Env
	return ec, nil
}

func (a *unixShellAdapter) Run(ctx context.Context, cmd Command, output io.Writer) (*ExecResult, error) {
	ec, err := a.buildCmd(ctx, cmd)
	if err != nil {
		return nil, err
	}
	ec.Stdout = output
	ec.Stderr = output

	if err := a.control.start(ec); err != nil {
		return nil, fmt.Errorf("starting process: %w", err)
	}

	waitErr := a.control.wait(ctx, ec, cmd.gracePeriod())
	return resultFromWait(waitErr)
}

func (a *unixShellAdapter) Spawn(ctx context.Context, cmd Command, output io.Writer) (*Process, error) {
	ec, err := a.buildCmd(ctx, cmd)
	if err != nil {
		return nil, err
	}
	ec.Stdout = output
	ec.Stderr = output

	var stdin io.WriteCloser
	if cmd.Stdin != nil {
		ec.Stdin = cmd.Stdin
	} else {
		stdin, err = ec.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("opening stdin pipe: %w", err)
		}
	}

	if err := a.control.start(ec); err != nil {
		return nil, fmt.Errorf("starting process: %w", err)
	}

	return &Process{
		Stdin: stdin,
		wait: func(waitCtx context.Context) (*ExecResult, error) {
			return resultFromWait(a.control.wait(waitCtx, ec, cmd.gracePeriod()))
		},
	}, nil
}

// resultFromWait classifies the outcome of waiting on a command. A non-zero
// exit becomes a normal ExecResult; anything else is a real error.
func resultFromWait(waitErr error) (*ExecResult, error) {
	if waitErr == nil {
		return &ExecResult{ExitCode: 0, ExitCodeKnown: true}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return &ExecResult{ExitCode: exitErr.ExitCode(), ExitCodeKnown: true}, nil
	}
	return nil, waitErr
}
