// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package speech

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/card-narrator/internal/command"
	"github.com/pdiddy/card-narrator/pkg/types"
)

// espeak-ng accepts 80 to 450 words per minute.
const (
	minWPM = 80
	maxWPM = 450
)

// espeakBinaries are tried in order when no explicit binary is configured.
var espeakBinaries = []string{"espeak-ng", "espeak"}

// Espeak synthesizes offline with espeak-ng, one process per session.
type Espeak struct {
	bin    string
	voice  string
	rate   int
	runner command.Runner
}

// NewEspeak locates the espeak-ng binary and returns an engine for it.
func NewEspeak(cfg types.SpeechConfig, runner command.Runner) (*Espeak, error) {
	bin, err := findEspeak(cfg.Binary, runner)
	if err != nil {
		return nil, err
	}
	return &Espeak{
		bin:    bin,
		voice:  espeakVoice(cfg),
		rate:   min(max(cfg.Rate, minWPM), maxWPM),
		runner: runner,
	}, nil
}

func findEspeak(explicit string, runner command.Runner) (string, error) {
	if explicit != "" {
		p, err := runner.LookPath(explicit)
		if err != nil {
			return "", fmt.Errorf("espeak engine: %s: %w", explicit, err)
		}
		return p, nil
	}
	for _, name := range espeakBinaries {
		if p, err := runner.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("espeak engine: none of %s found on PATH", strings.Join(espeakBinaries, ", "))
}

func (e *Espeak) Name() string   { return string(types.EngineEspeak) }
func (e *Espeak) MaxInput() int  { return 0 }
func (e *Espeak) Output() Output { return Output{Ext: "wav"} }

func (e *Espeak) Open(context.Context) (Session, error) {
	return &espeakSession{engine: e}, nil
}

type espeakSession struct {
	engine *Espeak
}

// Synthesize feeds text on stdin so it is never parsed as an option.
func (s *espeakSession) Synthesize(ctx context.Context, text, dst string) error {
	e := s.engine
	args := []string{
		"-v", e.voice,
		"-s", strconv.Itoa(e.rate),
		"-w", dst,
		"--stdin",
	}
	if err := e.runner.Run(ctx, e.bin, args, strings.NewReader(text), nil); err != nil {
		return fmt.Errorf("espeak synthesis: %w", err)
	}
	return nil
}

func (s *espeakSession) Close() error { return nil }

// espeakVoice picks the configured voice or a language voice with the
// preferred gender variant.
func espeakVoice(cfg types.SpeechConfig) string {
	if cfg.Voice != "" {
		return cfg.Voice
	}
	lang := cfg.Language
	if lang == "" {
		lang = types.DefaultLanguage
	}
	if cfg.Male {
		return lang + "+m3"
	}
	return lang + "+f3"
}
