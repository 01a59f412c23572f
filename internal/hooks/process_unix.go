// ABOUTME: Unix-specific process group setup for hook commands
// ABOUTME: Detaches each command into its own group, away from terminal signals

//go:build unix

package hooks

import (
	"os/exec"
	"syscall"
)

// setProcGroup configures the command to run in its own process group.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
