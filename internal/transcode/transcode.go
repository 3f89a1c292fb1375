// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcode locates ffmpeg and converts synthesized WAV parts into
// the final artifact format.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pdiddy/card-narrator/internal/command"
)

// ErrTranscoderNotFound is returned by Locate when no ffmpeg executable can
// be found.
var ErrTranscoderNotFound = errors.New("ffmpeg not found")

// EnvPath names the environment variable consulted for the ffmpeg path.
const EnvPath = "FFMPEG_PATH"

// Transcoder converts audio with ffmpeg.
type Transcoder struct {
	bin    string
	runner command.Runner
}

// env abstracts the process environment and filesystem for Locate.
type env struct {
	getenv func(string) string
	exists func(string) bool
	goos   string
}

var osEnv = env{
	getenv: os.Getenv,
	exists: func(p string) bool {
		info, err := os.Stat(p)
		return err == nil && !info.IsDir()
	},
	goos: runtime.GOOS,
}

// Locate finds ffmpeg, trying in order the explicit path, $FFMPEG_PATH,
// PATH and well-known install locations. An explicit path that does not
// exist is skipped.
func Locate(explicit string, runner command.Runner) (*Transcoder, error) {
	return locate(explicit, runner, osEnv)
}

func locate(explicit string, runner command.Runner, e env) (*Transcoder, error) {
	for _, p := range []string{explicit, e.getenv(EnvPath)} {
		if p != "" && e.exists(p) {
			return &Transcoder{bin: p, runner: runner}, nil
		}
	}
	if p, err := runner.LookPath("ffmpeg"); err == nil {
		return &Transcoder{bin: p, runner: runner}, nil
	}
	for _, p := range knownPaths(e) {
		if e.exists(p) {
			return &Transcoder{bin: p, runner: runner}, nil
		}
	}
	return nil, ErrTranscoderNotFound
}

func knownPaths(e env) []string {
	if e.goos == "windows" {
		paths := []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
		if local := e.getenv("LOCALAPPDATA"); local != "" {
			paths = append([]string{filepath.Join(local, "Microsoft", "WinGet", "Links", "ffmpeg.exe")}, paths...)
		}
		return paths
	}
	return []string{
		"/usr/local/bin/ffmpeg",
		"/opt/homebrew/bin/ffmpeg",
		"/usr/bin/ffmpeg",
		"/snap/bin/ffmpeg",
	}
}

// Path returns the ffmpeg executable in use.
func (t *Transcoder) Path() string { return t.bin }

// Transcode encodes inputs, in order, into out at the given bitrate. The
// output format follows the extension of out. Several inputs are joined
// with the concat demuxer through a list file written next to out.
func (t *Transcoder) Transcode(ctx context.Context, inputs []string, out, bitrate string) error {
	if len(inputs) == 0 {
		return errors.New("transcode: no inputs")
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if len(inputs) == 1 {
		args = append(args, "-i", inputs[0])
	} else {
		list := out + ".concat"
		if err := writeConcatList(list, inputs); err != nil {
			return err
		}
		defer os.Remove(list)
		args = append(args, "-f", "concat", "-safe", "0", "-i", list)
	}
	if bitrate != "" {
		args = append(args, "-b:a", bitrate)
	}
	args = append(args, out)

	if err := t.runner.Run(ctx, t.bin, args, nil, nil); err != nil {
		return fmt.Errorf("transcoding to %s: %w", filepath.Base(out), err)
	}
	return nil
}

// writeConcatList writes an ffmpeg concat demuxer script listing inputs.
func writeConcatList(path string, inputs []string) error {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", in, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing concat list: %w", err)
	}
	return nil
}
