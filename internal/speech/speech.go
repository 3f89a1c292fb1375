// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package speech defines the synthesis engine boundary and its
// implementations: a remote OpenAI engine returning encoded audio and an
// offline espeak-ng engine writing WAV files.
package speech

import (
	"context"
	"fmt"

	"github.com/pdiddy/card-narrator/internal/command"
	"github.com/pdiddy/card-narrator/pkg/types"
)

// Output describes the part files an engine writes.
type Output struct {
	// Ext is the part file extension without a dot ("mp3", "wav").
	Ext string

	// Encoded is true when parts are frames of a compressed stream that can
	// be joined byte-wise. Raw WAV parts must go through the transcoder.
	Encoded bool
}

// Engine creates synthesis sessions. Implementations must be safe to reuse
// across many sessions.
type Engine interface {
	// Name identifies the engine in status lines and the ledger.
	Name() string

	// MaxInput is the largest text, in characters, one Synthesize call
	// accepts. Zero means no limit.
	MaxInput() int

	// Output describes the files Synthesize writes.
	Output() Output

	// Open starts a session. Callers must Close every session they open.
	Open(ctx context.Context) (Session, error)
}

// Session synthesizes speech. A session is used by one goroutine.
type Session interface {
	// Synthesize renders text into an audio file at dst.
	Synthesize(ctx context.Context, text, dst string) error

	// Close releases the session's resources.
	Close() error
}

// New builds the engine selected by cfg. format is the requested artifact
// format, used by engines that can encode directly.
func New(cfg types.SpeechConfig, format string, runner command.Runner) (Engine, error) {
	switch cfg.Engine {
	case types.EngineOpenAI:
		return NewOpenAI(cfg, format)
	case types.EngineEspeak:
		return NewEspeak(cfg, runner)
	default:
		return nil, fmt.Errorf("unknown speech engine %q", cfg.Engine)
	}
}
