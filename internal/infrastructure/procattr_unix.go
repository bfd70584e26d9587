//go:build !windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the child in its own process group so that
// ffmpeg helpers spawned by yt-dlp die with it
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // Create new process group
		Pgid:    0,    // Use the new process's PID as PGID
	}
}

// killProcessGroup kills the whole process group of cmd
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
