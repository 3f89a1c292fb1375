// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build unix

package command

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in its own process group; a terminal interrupt then
// reaches only the narrator.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
