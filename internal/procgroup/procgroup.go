// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup runs helper processes in their own process group so that
// cancellation reaps the whole tree, not just the direct child.
package procgroup

import (
	"errors"
	"os/exec"
	"time"
)

// ErrNotStarted is returned when killing a command that has no process.
var ErrNotStarted = errors.New("process not started")

// Set configures the command to start in a new process group.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Bind puts cmd in its own process group and makes context cancellation kill
// the entire group. waitDelay bounds how long Wait blocks on inherited pipes
// after the kill. cmd must have been created with exec.CommandContext.
func Bind(cmd *exec.Cmd, waitDelay time.Duration) {
	set(cmd)
	cmd.Cancel = func() error {
		return Kill(cmd)
	}
	cmd.WaitDelay = waitDelay
}

// Kill sends SIGKILL to the process group of cmd (or the process itself where
// groups are unsupported).
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}
	return killGroup(cmd.Process.Pid)
}
