//go:build windows

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/shlex"
	"golang.org/x/sys/windows"
)

type windowsShellAdapter struct{}

func newPlatformShellAdapter() ShellAdapter {
	return &windowsShellAdapter{}
}

func (a *windowsShellAdapter) ReportsExitCodes() bool { return true }

func (a *windowsShellAdapter) buildCmd(ctx context.Context, cmd Command) (*exec.Cmd, error) {
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
		ec = exec.CommandContext(ctx, "cmd.exe", "/C", cmd.Statement)
	default:
		ec = exec.CommandContext(ctx, cmd.Shell, "-c", cmd.Statement)
	}

	ec.Dir = cmd.WorkDir
	ec.Env = cmd.Env
	return ec, nil
}

func (a *windowsShellAdapter) Run(ctx context.Context, cmd Command, output io.Writer) (*ExecResult, error) {
	ec, err := a.buildCmd(ctx, cmd)
	if err != nil {
		return nil, err
	}
	ec.Stdout = output
	ec.Stderr = output

	if err := startProcessGroup(ec); err != nil {
		return nil, fmt.Errorf("starting process: %w", err)
	}
	return resultFromWaitWindows(waitProcess(ctx, ec, cmd.gracePeriod()))
}

func (a *windowsShellAdapter) Spawn(ctx context.Context, cmd Command, output io.Writer) (*Process, error) {
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

	if err := startProcessGroup(ec); err != nil {
		return nil, fmt.Errorf("starting process: %w", err)
	}

	return &Process{
		Stdin: stdin,
		wait: func(waitCtx context.Context) (*ExecResult, error) {
			return resultFromWaitWindows(waitProcess(waitCtx, ec, cmd.gracePeriod()))
		},
	}, nil
}

func resultFromWaitWindows(waitErr error) (*ExecResult, error) {
	if waitErr == nil {
		return &ExecResult{ExitCode: 0, ExitCodeKnown: true}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return &ExecResult{ExitCode: exitErr.ExitCode(), ExitCodeKnown: true}, nil
	}
	return nil, waitErr
}

// startProcessGroup starts the command in a new console process group so
// CTRL_BREAK_EVENT reaches the whole tree.
func startProcessGroup(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
	return cmd.Start()
}

func interruptProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errors.New(errProcessNotStarted)
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}

func waitProcess(ctx context.Context, cmd *exec.Cmd, gracePeriod time.Duration) error {
	if cmd.Process == nil {
		return errors.New(errProcessNotStarted)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = interruptProcess(cmd)

		select {
		case err := <-done:
			return err
		case <-time.After(gracePeriod):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			return <-done
		}
	}
}
