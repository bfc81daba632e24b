//go:build unix

package scanner

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttributes puts the scanner in its own process group so that any
// children a wedged plugin spawns die with it.
func setProcAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) error {
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGKILL); err == nil || err == unix.ESRCH {
		return nil
	}
	return cmd.Process.Kill()
}
