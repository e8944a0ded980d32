//go:build !windows

package pipeline

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// processControl manages subprocess lifecycle with process-group signals so
// a cancelled step takes its whole shell pipeline down, not just the leader.
type processControl struct{}

func newProcessControl() processControl {
	return processControl{}
}

// start places the command in a fresh process group and starts it.
// Pdeathsig is Linux-only and set conditionally in process_linux.go.
func (processControl) start(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	setPdeathsig(cmd.SysProcAttr)
	return cmd.Start()
}

// interrupt sends SIGINT to the process group (negative pid targets the group).
func (processControl) interrupt(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errors.New(errProcessNotStarted)
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}

// kill sends SIGKILL to the process group.
func (processControl) kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errors.New(errProcessNotStarted)
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

// wait blocks until the command exits. On context cancellation it sends an
// interrupt, waits up to gracePeriod, then kills the group.
func (c processControl) wait(ctx context.Context, cmd *exec.Cmd, gracePeriod time.Duration) error {
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
		_ = c.interrupt(cmd)

		select {
		case err := <-done:
			return err
		case <-time.After(gracePeriod):
			_ = c.kill(cmd)
			return <-done
		}
	}
}
