// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// EngineKind identifies the speech synthesis engine.
type EngineKind string

const (
	// EngineOpenAI synthesizes through the OpenAI speech endpoint and returns
	// encoded audio bytes per chunk.
	EngineOpenAI EngineKind = "openai"

	// EngineEspeak synthesizes offline with espeak-ng, writing WAV files that
	// the transcoder converts to the output format.
	EngineEspeak EngineKind = "espeak"
)

// Defaults used when the configuration leaves a field empty.
const (
	DefaultInputDir      = "descriptions"
	DefaultOutputDir     = "audio"
	DefaultRate          = 175
	DefaultBitrate       = "192k"
	DefaultFormat        = "mp3"
	DefaultSeparator     = "__"
	DefaultLanguage      = "en"
	DefaultOpenAIModel   = "tts-1"
	DefaultMaxChunkChars = 4200
)

// SpeechConfig holds the synthesis engine settings.
type SpeechConfig struct {
	// Engine selects the synthesis engine: openai or espeak.
	Engine EngineKind `json:"engine" yaml:"engine" mapstructure:"engine"`

	// Rate is the speaking rate in words per minute (default 175). Engines
	// that take a speed multiplier derive it from this value.
	Rate int `json:"rate" yaml:"rate" mapstructure:"rate"`

	// Male prefers a male voice when Voice is empty. The default is female.
	Male bool `json:"male" yaml:"male" mapstructure:"male"`

	// Voice overrides voice selection with an engine-specific identifier
	// (e.g. "nova" for openai, "it+f3" for espeak).
	Voice string `json:"voice,omitempty" yaml:"voice,omitempty" mapstructure:"voice"`

	// Language is the voice language code used by offline engines (default "en").
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// Model is the remote speech model (default "tts-1").
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`

	// APIKey authenticates remote engines.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// Binary is an explicit path to the offline engine executable.
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty" mapstructure:"binary"`

	// MaxChunkChars caps the characters sent per synthesis call (default
	// 4200). The engine's own input limit applies when it is smaller.
	MaxChunkChars int `json:"max_chunk_chars" yaml:"max_chunk_chars" mapstructure:"max_chunk_chars"`
}

// AudioConfig holds output and transcoding settings.
type AudioConfig struct {
	// Format is the artifact container/extension (default "mp3").
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Bitrate is passed to the transcoder (default "192k").
	Bitrate string `json:"bitrate" yaml:"bitrate" mapstructure:"bitrate"`

	// FFmpeg is an explicit path to the ffmpeg executable. Empty means
	// auto-detect.
	FFmpeg string `json:"ffmpeg,omitempty" yaml:"ffmpeg,omitempty" mapstructure:"ffmpeg"`

	// Separator joins the document stem and the label in artifact names
	// ("__" or "_").
	Separator string `json:"separator" yaml:"separator" mapstructure:"separator"`
}

// NarrationConfig is the explicit configuration passed into the narration
// pipeline.
type NarrationConfig struct {
	// InputDir holds the Markdown card descriptions.
	InputDir string `json:"input" yaml:"input" mapstructure:"input"`

	// OutputDir receives the audio artifacts.
	OutputDir string `json:"output" yaml:"output" mapstructure:"output"`

	// Only restricts processing to files whose stem contains this substring
	// (case-insensitive).
	Only string `json:"only,omitempty" yaml:"only,omitempty" mapstructure:"only"`

	// Force regenerates artifacts that already exist.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// Verbose adds per-chunk status lines.
	Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`

	// LedgerPath is the SQLite ledger file. Empty disables the ledger.
	LedgerPath string `json:"ledger,omitempty" yaml:"ledger,omitempty" mapstructure:"ledger"`

	// ReportPath receives a YAML run report when set.
	ReportPath string `json:"report,omitempty" yaml:"report,omitempty" mapstructure:"report"`

	Speech SpeechConfig `json:"speech" yaml:"speech" mapstructure:"speech"`
	Audio  AudioConfig  `json:"audio" yaml:"audio" mapstructure:"audio"`
}

// Normalize fills empty fields with defaults.
func (c *NarrationConfig) Normalize() {
	if c.InputDir == "" {
		c.InputDir = DefaultInputDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = EngineEspeak
	}
	c.Speech.Engine = EngineKind(strings.ToLower(string(c.Speech.Engine)))
	if c.Speech.Rate <= 0 {
		c.Speech.Rate = DefaultRate
	}
	if c.Speech.Language == "" {
		c.Speech.Language = DefaultLanguage
	}
	if c.Speech.Model == "" {
		c.Speech.Model = DefaultOpenAIModel
	}
	if c.Speech.MaxChunkChars <= 0 {
		c.Speech.MaxChunkChars = DefaultMaxChunkChars
	}
	if c.Audio.Format == "" {
		c.Audio.Format = DefaultFormat
	}
	c.Audio.Format = strings.TrimPrefix(strings.ToLower(c.Audio.Format), ".")
	if c.Audio.Bitrate == "" {
		c.Audio.Bitrate = DefaultBitrate
	}
	if c.Audio.Separator == "" {
		c.Audio.Separator = DefaultSeparator
	}
}

// Validate reports configuration errors that would make a run impossible.
// Call Normalize first.
func (c *NarrationConfig) Validate() error {
	var errs []error
	switch c.Speech.Engine {
	case EngineOpenAI:
		if c.Speech.APIKey == "" {
			errs = append(errs, errors.New("speech.api_key is required for the openai engine"))
		}
	case EngineEspeak:
	default:
		errs = append(errs, fmt.Errorf("unknown speech engine %q (want openai or espeak)", c.Speech.Engine))
	}
	if c.Audio.Separator != "_" && c.Audio.Separator != "__" {
		errs = append(errs, fmt.Errorf("audio.separator must be \"_\" or \"__\", got %q", c.Audio.Separator))
	}
	if strings.ContainsAny(c.Audio.Format, `/\ `) {
		errs = append(errs, fmt.Errorf("invalid audio.format %q", c.Audio.Format))
	}
	return errors.Join(errs...)
}
