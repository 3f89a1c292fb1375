// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package narrate

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/card-narrator/internal/speech"
	"github.com/pdiddy/card-narrator/pkg/types"
)

// fakeEngine writes "[text]" for every chunk and counts sessions.
type fakeEngine struct {
	maxInput int
	out      speech.Output
	failOn   string
	onSynth  func(ctx context.Context)

	opened int
	closed int
	texts  []string
}

func (e *fakeEngine) Name() string          { return "fake" }
func (e *fakeEngine) MaxInput() int         { return e.maxInput }
func (e *fakeEngine) Output() speech.Output { return e.out }

func (e *fakeEngine) Open(context.Context) (speech.Session, error) {
	e.opened++
	return &fakeSession{e: e}, nil
}

type fakeSession struct{ e *fakeEngine }

func (s *fakeSession) Synthesize(ctx context.Context, text, dst string) error {
	if s.e.onSynth != nil {
		s.e.onSynth(ctx)
	}
	s.e.texts = append(s.e.texts, text)
	if s.e.failOn != "" && strings.Contains(text, s.e.failOn) {
		return errors.New("engine refused")
	}
	return os.WriteFile(dst, []byte("["+text+"]"), 0o644)
}

func (s *fakeSession) Close() error {
	s.e.closed++
	return nil
}

// fakeTranscoder joins its inputs behind a marker.
type fakeTranscoder struct {
	calls [][]string
	err   error
}

func (f *fakeTranscoder) Transcode(_ context.Context, inputs []string, out, bitrate string) error {
	f.calls = append(f.calls, inputs)
	if f.err != nil {
		return f.err
	}
	var b bytes.Buffer
	b.WriteString("enc(" + bitrate + "):")
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		b.Write(data)
	}
	return os.WriteFile(out, b.Bytes(), 0o644)
}

type memRecorder struct{ outcomes []types.Outcome }

func (m *memRecorder) Record(o types.Outcome) error {
	m.outcomes = append(m.outcomes, o)
	return nil
}

const twoSections = "## Meaning in the Past\nLong ago...\n## Meaning in the Present\nNow...\n"

func mp3Engine() *fakeEngine {
	return &fakeEngine{maxInput: 4096, out: speech.Output{Ext: "mp3", Encoded: true}}
}

func testConfig(t *testing.T) types.NarrationConfig {
	t.Helper()
	cfg := types.NarrationConfig{OutputDir: filepath.Join(t.TempDir(), "audio")}
	cfg.Normalize()
	return cfg
}

func doc(stem, raw string) types.Document {
	return types.Document{Path: stem + ".md", Stem: stem, Raw: raw}
}

func readArtifact(t *testing.T, cfg types.NarrationConfig, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
	require.NoError(t, err)
	return string(data)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRunCreatesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	engine := mp3Engine()
	var out bytes.Buffer

	sum, err := New(cfg, engine, &out).Run(context.Background(), []types.Document{doc("00_fool", twoSections)})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Documents)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 2, sum.Chunks)
	assert.Zero(t, sum.Intermediates)
	require.Len(t, sum.Outcomes, 2)
	assert.Equal(t, types.LabelPast, sum.Outcomes[0].Label)

	assert.Equal(t, []string{"00_fool__Past.mp3", "00_fool__Present.mp3"}, listDir(t, cfg.OutputDir))
	assert.Equal(t, "[Long ago...]", readArtifact(t, cfg, "00_fool__Past.mp3"))
	assert.Equal(t, "[Now...]", readArtifact(t, cfg, "00_fool__Present.mp3"))

	assert.Contains(t, out.String(), "created: 00_fool__Past.mp3 (1 chunks)")
	assert.Contains(t, out.String(), "Narration summary: 1 documents, 2 created, 0 skipped, 0 failed")
	assert.Equal(t, engine.opened, engine.closed)
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	engine := mp3Engine()
	docs := []types.Document{doc("card", twoSections)}

	_, err := New(cfg, engine, &bytes.Buffer{}).Run(context.Background(), docs)
	require.NoError(t, err)
	opened := engine.opened
	before := readArtifact(t, cfg, "card__Past.mp3")

	var out bytes.Buffer
	sum, err := New(cfg, engine, &out).Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Skipped)
	assert.Zero(t, sum.Created)
	assert.Equal(t, opened, engine.opened, "second run must not synthesize")
	assert.Equal(t, before, readArtifact(t, cfg, "card__Past.mp3"))
	assert.Contains(t, out.String(), "skipped: card__Past.mp3 (already exists)")
}

func TestRunForceRegenerates(t *testing.T) {
	cfg := testConfig(t)
	engine := mp3Engine()
	docs := []types.Document{doc("card", twoSections)}

	_, err := New(cfg, engine, &bytes.Buffer{}).Run(context.Background(), docs)
	require.NoError(t, err)

	cfg.Force = true
	sum, err := New(cfg, engine, &bytes.Buffer{}).Run(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 4, engine.opened)
}

func TestRunChunksLongSections(t *testing.T) {
	cfg := testConfig(t)
	cfg.Verbose = true
	engine := &fakeEngine{maxInput: 10, out: speech.Output{Ext: "mp3", Encoded: true}}
	var out bytes.Buffer

	sum, err := New(cfg, engine, &out).Run(context.Background(),
		[]types.Document{doc("card", "## Future\nOne. Two. Three. Four.")})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Chunks)
	assert.Equal(t, []string{"One. Two.", "Three.", "Four."}, engine.texts)
	assert.Equal(t, "[One. Two.][Three.][Four.]", readArtifact(t, cfg, "card__Future.mp3"))
	assert.Equal(t, 3, engine.opened, "one session per chunk")
	assert.Equal(t, 3, engine.closed)
	assert.Contains(t, out.String(), "chunk 2/3: 6 chars")
	assert.Equal(t, 3, sum.Outcomes[0].Chunks)
}

func TestRunIsolatesFailures(t *testing.T) {
	cfg := testConfig(t)
	engine := mp3Engine()
	engine.failOn = "Bad"
	rec := &memRecorder{}
	var out bytes.Buffer

	sum, err := New(cfg, engine, &out, WithRecorder(rec)).Run(context.Background(), []types.Document{
		doc("a", "## Past\nBad news.\n## Present\nGood news."),
		doc("b", "Plain text."),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Created)
	assert.True(t, sum.HasFailures())
	assert.Contains(t, out.String(), "failed:  a__Past.mp3 (chunk 1/1: engine refused)")
	assert.Equal(t, []string{"a__Present.mp3", "b__General.mp3"}, listDir(t, cfg.OutputDir),
		"failed artifacts and work directories must not remain")
	assert.Equal(t, engine.opened, engine.closed)

	require.Len(t, rec.outcomes, 3)
	assert.Equal(t, types.OutcomeFailed, rec.outcomes[0].Status)
	assert.Equal(t, "chunk 1/1: engine refused", rec.outcomes[0].Error)
	assert.False(t, rec.outcomes[0].At.IsZero())
}

func TestRunCancellation(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sawCancelled bool
	engine := mp3Engine()
	engine.onSynth = func(c context.Context) {
		cancel()
		sawCancelled = sawCancelled || c.Err() != nil
	}

	sum, err := New(cfg, engine, &bytes.Buffer{}).Run(ctx, []types.Document{
		doc("a", twoSections),
		doc("b", "Plain text."),
	})
	require.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)

	assert.False(t, sawCancelled, "in-flight synthesis must not observe cancellation")
	assert.Equal(t, 1, sum.Created, "the in-flight section completes")
	assert.Equal(t, []string{"a__Past.mp3"}, listDir(t, cfg.OutputDir))
}

func TestRunTranscodesWAVParts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Speech.MaxChunkChars = 6
	engine := &fakeEngine{maxInput: 100, out: speech.Output{Ext: "wav"}}
	tr := &fakeTranscoder{}

	sum, err := New(cfg, engine, &bytes.Buffer{}, WithTranscoder(tr)).Run(context.Background(),
		[]types.Document{doc("card", "## Past\nAlpha. Beta.")})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Intermediates)
	require.Len(t, tr.calls, 1)
	assert.Len(t, tr.calls[0], 2)
	assert.Equal(t, "enc(192k):[Alpha.][Beta.]", readArtifact(t, cfg, "card__Past.mp3"))
}

func TestRunTranscoderFailure(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{out: speech.Output{Ext: "wav"}}
	tr := &fakeTranscoder{err: errors.New("ffmpeg exploded")}
	var out bytes.Buffer

	sum, err := New(cfg, engine, &out, WithTranscoder(tr)).Run(context.Background(),
		[]types.Document{doc("card", "## Past\nAlpha.")})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, out.String(), "ffmpeg exploded")
	assert.Empty(t, listDir(t, cfg.OutputDir))
}

func TestRunWithoutTranscoderWritesWAV(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{out: speech.Output{Ext: "wav"}}
	var out bytes.Buffer

	d := New(cfg, engine, &out)
	assert.Equal(t, "wav", d.Ext())

	sum, err := d.Run(context.Background(), []types.Document{doc("card", "## Present\n"+strings.Repeat("Long. ", 2000))})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, engine.opened, "unlimited engines get one chunk")
	assert.Equal(t, []string{"card__Present.wav"}, listDir(t, cfg.OutputDir))
	assert.Contains(t, out.String(), "warning: no transcoder available")
}

func TestRunWAVPartsWithoutTranscoderFail(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{maxInput: 6, out: speech.Output{Ext: "wav"}}

	sum, err := New(cfg, engine, &bytes.Buffer{}).Run(context.Background(),
		[]types.Document{doc("card", "## Past\nAlpha. Beta.")})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, sum.Outcomes[0].Error, "requires a transcoder")
}

func TestRunUnrecognized(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	sum, err := New(cfg, mp3Engine(), &out).Run(context.Background(),
		[]types.Document{doc("empty", "# Title only\n---\n")})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Unrecognized)
	assert.Zero(t, sum.Total())
	assert.Contains(t, out.String(), "unrecognized: empty (no narratable sections)")
}

func TestDocument(t *testing.T) {
	cfg := testConfig(t)
	d := New(cfg, mp3Engine(), &bytes.Buffer{})

	var sum types.Summary
	outcomes, err := d.Document(context.Background(), doc("card", twoSections), &sum)
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
	assert.Equal(t, 2, sum.Chunks, "chunk counts reach the caller's summary")
	assert.Zero(t, sum.Created, "outcomes are added by the caller")

	_, err = d.Document(context.Background(), doc("none", ""), nil)
	assert.ErrorIs(t, err, ErrUnrecognized)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Document(ctx, doc("card2", twoSections), nil)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "00_fool__Past.mp3", ArtifactName("00_fool", types.LabelPast, "__", "mp3"))
	assert.Equal(t, "00_fool_General.wav", ArtifactName("00_fool", types.LabelGeneral, "_", "wav"))
}

func TestLimit(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, 4096, New(cfg, &fakeEngine{maxInput: 4096}, nil).limit())
	cfg.Speech.MaxChunkChars = 1000
	assert.Equal(t, 1000, New(cfg, &fakeEngine{maxInput: 4096}, nil).limit())
	assert.Equal(t, math.MaxInt, New(cfg, &fakeEngine{}, nil).limit())
}
