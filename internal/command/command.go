// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package command runs the external programs the narrator depends on
// (espeak-ng, ffmpeg) behind an interface so callers can be tested with a
// fake runner.
package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner abstracts program lookup and execution.
type Runner interface {
	// LookPath resolves a program name against PATH.
	LookPath(file string) (string, error)

	// Run executes name with args. stdin and stdout may be nil. A failing
	// command returns an error carrying the trimmed stderr output.
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// OS is the production Runner backed by os/exec.
type OS struct{}

// New returns the production runner.
func New() Runner {
	return OS{}
}

func (OS) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OS) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	detach(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &Error{Name: name, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return nil
}

// Error reports a failed command together with what it wrote to stderr.
type Error struct {
	Name   string
	Err    error
	Stderr string
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command %s failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("command %s failed: %v: %s", e.Name, e.Err, lastLine(e.Stderr))
}

func (e *Error) Unwrap() error { return e.Err }

// lastLine keeps error strings to one line; ffmpeg and espeak-ng print the
// cause last.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
