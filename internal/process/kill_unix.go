//go:build !windows

// Package process terminates the headless Chrome process tree left behind
// by the rasterizer.
package process

import "syscall"

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID). Non-positive PIDs are ignored so a
// launcher that never started cannot signal our own group.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort: launcher.Kill() runs afterwards as a fallback
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
