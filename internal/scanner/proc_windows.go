//go:build windows

package scanner

import "os/exec"

func setProcAttributes(*exec.Cmd) {}

func killProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
