// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/card-narrator/pkg/types"
)

const (
	// openAIMaxInput is the speech endpoint's input limit in characters.
	openAIMaxInput = 4096

	// referenceRate is the words-per-minute rate that maps to speed 1.0.
	referenceRate = 175

	minSpeed = 0.25
	maxSpeed = 4.0
)

// encodedFormats are response formats whose parts concatenate byte-wise.
// FLAC is absent: every part carries its own stream header, so FLAC
// artifacts are joined from WAV parts by the transcoder.
var encodedFormats = map[string]openai.SpeechResponseFormat{
	"mp3":  openai.SpeechResponseFormatMp3,
	"opus": openai.SpeechResponseFormatOpus,
	"aac":  openai.SpeechResponseFormatAac,
}

// speaker is the subset of the OpenAI client the engine uses.
type speaker interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAI synthesizes through the OpenAI speech endpoint.
type OpenAI struct {
	client speaker
	req    openai.CreateSpeechRequest
	out    Output
}

// NewOpenAI returns an engine using the API key in cfg. Formats the
// endpoint cannot return as concatenable frames are requested as WAV and
// left to the transcoder.
func NewOpenAI(cfg types.SpeechConfig, format string) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai engine: API key is not set")
	}
	return newOpenAI(openai.NewClient(cfg.APIKey), cfg, format), nil
}

func newOpenAI(client speaker, cfg types.SpeechConfig, format string) *OpenAI {
	req := openai.CreateSpeechRequest{
		Model: openai.SpeechModel(cfg.Model),
		Voice: openai.SpeechVoice(openAIVoice(cfg)),
		Speed: Speed(cfg.Rate),
	}
	out := Output{Ext: "wav"}
	if rf, ok := encodedFormats[format]; ok {
		req.ResponseFormat = rf
		out = Output{Ext: format, Encoded: true}
	} else {
		req.ResponseFormat = openai.SpeechResponseFormatWav
	}
	if req.Model == "" {
		req.Model = openai.TTSModel1
	}
	return &OpenAI{client: client, req: req, out: out}
}

func (e *OpenAI) Name() string   { return string(types.EngineOpenAI) }
func (e *OpenAI) MaxInput() int  { return openAIMaxInput }
func (e *OpenAI) Output() Output { return e.out }

// Open returns a session sharing the engine's HTTP client.
func (e *OpenAI) Open(context.Context) (Session, error) {
	return &openAISession{client: e.client, req: e.req}, nil
}

type openAISession struct {
	client speaker
	req    openai.CreateSpeechRequest
}

func (s *openAISession) Synthesize(ctx context.Context, text, dst string) error {
	req := s.req
	req.Input = text

	resp, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		return fmt.Errorf("reading openai speech response: %w", err)
	}
	return f.Close()
}

func (s *openAISession) Close() error { return nil }

// Speed maps a words-per-minute rate to the endpoint's speed multiplier.
func Speed(rate int) float64 {
	if rate <= 0 {
		return 1
	}
	return min(max(float64(rate)/referenceRate, minSpeed), maxSpeed)
}

func openAIVoice(cfg types.SpeechConfig) string {
	switch {
	case cfg.Voice != "":
		return cfg.Voice
	case cfg.Male:
		return string(openai.VoiceOnyx)
	default:
		return string(openai.VoiceNova)
	}
}
