//go:build linux

package pipeline

import "syscall"

// setPdeathsig ensures children die with the parent. Linux only.
func setPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}
