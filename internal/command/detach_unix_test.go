// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build unix

package command

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetachSetsProcessGroup(t *testing.T) {
	cmd := exec.Command("true")
	detach(cmd)
	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
}

func TestOSRunChildHasOwnProcessGroup(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var out bytes.Buffer
	// $$ is the shell's pid; with Setpgid it leads its own group.
	script := `ps -o pgid= -p $$ 2>/dev/null || echo $$`
	require.NoError(t, New().Run(context.Background(), "sh", []string{"-c", script}, nil, &out))

	pgid, err := strconv.Atoi(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.NotEqual(t, syscall.Getpgrp(), pgid, "child must not share the narrator's process group")
}
