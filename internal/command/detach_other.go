// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !unix

package command

import "os/exec"

func detach(*exec.Cmd) {}
