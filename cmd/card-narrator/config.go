// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/card-narrator/internal/secrets"
	"github.com/pdiddy/card-narrator/pkg/types"
)

// keyAPIKey is the config key for the remote engine credential. It has no
// flag; it comes from the config file, CARD_NARRATOR_SPEECH_API_KEY,
// OPENAI_API_KEY or .secrets/openai-api-key.
const keyAPIKey = "speech.api_key"

// narrationFlags maps flag names to their config keys.
var narrationFlags = []struct{ flag, key string }{
	{"input", "input"},
	{"output", "output"},
	{"only", "only"},
	{"force", "force"},
	{"verbose", "verbose"},
	{"ledger", "ledger"},
	{"report", "report"},
	{"engine", "speech.engine"},
	{"rate", "speech.rate"},
	{"male", "speech.male"},
	{"voice", "speech.voice"},
	{"language", "speech.language"},
	{"model", "speech.model"},
	{"espeak", "speech.binary"},
	{"max-chunk-chars", "speech.max_chunk_chars"},
	{"format", "audio.format"},
	{"bitrate", "audio.bitrate"},
	{"ffmpeg", "audio.ffmpeg"},
	{"separator", "audio.separator"},
}

// addNarrationFlags registers the flags shared by narrate and watch.
func addNarrationFlags(f *pflag.FlagSet) {
	f.String("input", types.DefaultInputDir, "directory of Markdown card descriptions")
	f.String("output", types.DefaultOutputDir, "directory for audio files")
	f.String("only", "", "process only files whose name contains this text (case-insensitive)")
	f.Bool("force", false, "regenerate audio files that already exist")
	f.BoolP("verbose", "v", false, "print a line per synthesized chunk")
	f.String("ledger", "", "SQLite ledger recording every outcome (empty disables)")
	f.String("report", "", "write a YAML run report to this path")

	f.String("engine", string(types.EngineEspeak), "speech engine: openai or espeak")
	f.Int("rate", types.DefaultRate, "speaking rate in words per minute")
	f.Bool("male", false, "prefer a male voice (default female)")
	f.String("voice", "", "engine-specific voice, overrides --male and --language")
	f.String("language", types.DefaultLanguage, "voice language code for the offline engine")
	f.String("model", types.DefaultOpenAIModel, "OpenAI speech model")
	f.String("espeak", "", "path to the espeak-ng executable (default: search PATH)")
	f.Int("max-chunk-chars", types.DefaultMaxChunkChars, "maximum characters per synthesis call")

	f.String("format", types.DefaultFormat, "audio format and file extension")
	f.String("bitrate", types.DefaultBitrate, "encoder bitrate passed to ffmpeg")
	f.String("ffmpeg", "", "path to ffmpeg (default: $FFMPEG_PATH, PATH, common install locations)")
	f.String("separator", types.DefaultSeparator, `separator between file stem and section label: "_" or "__"`)
}

// bindNarrationFlags binds the command's flags to the global viper. It runs
// in PreRunE so that narrate and watch each bind their own flag set.
func bindNarrationFlags(cmd *cobra.Command, args []string) error {
	return bindFlags(viper.GetViper(), cmd.Flags())
}

func bindFlags(v *viper.Viper, f *pflag.FlagSet) error {
	for _, b := range narrationFlags {
		if err := v.BindPFlag(b.key, f.Lookup(b.flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", b.flag, err)
		}
	}
	return v.BindEnv(keyAPIKey)
}

// narrationConfig builds the run configuration from the global viper and
// the secrets loaded at startup.
func narrationConfig() (types.NarrationConfig, error) {
	return loadNarrationConfig(viper.GetViper(), loadedSecrets)
}

// loadNarrationConfig decodes v into a NarrationConfig, resolves the API
// key, applies defaults and validates the result.
func loadNarrationConfig(v *viper.Viper, stored map[string]string) (types.NarrationConfig, error) {
	var cfg types.NarrationConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Speech.APIKey == "" {
		cfg.Speech.APIKey = secrets.Lookup(stored, secrets.OpenAIKeyFile, secrets.OpenAIKeyEnv)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
