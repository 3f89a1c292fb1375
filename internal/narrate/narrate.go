// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package narrate turns card descriptions into one audio artifact per
// labeled section. Documents, sections and chunks are processed strictly
// one at a time; every chunk gets its own engine session.
package narrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/card-narrator/internal/chunk"
	"github.com/pdiddy/card-narrator/internal/sections"
	"github.com/pdiddy/card-narrator/internal/speech"
	"github.com/pdiddy/card-narrator/pkg/types"
)

var (
	// ErrCancelled is returned when the run context is cancelled. It wraps
	// context.Canceled.
	ErrCancelled = fmt.Errorf("narration cancelled: %w", context.Canceled)

	// ErrUnrecognized is returned by Document when a description holds no
	// narratable section.
	ErrUnrecognized = errors.New("no narratable sections")
)

// Transcoder converts WAV parts into the artifact format.
type Transcoder interface {
	Transcode(ctx context.Context, inputs []string, out, bitrate string) error
}

// Recorder persists outcomes, e.g. the ledger.
type Recorder interface {
	Record(o types.Outcome) error
}

// Driver runs narration for a fixed configuration and engine.
type Driver struct {
	cfg        types.NarrationConfig
	engine     speech.Engine
	transcoder Transcoder
	recorder   Recorder
	w          io.Writer
	now        func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithTranscoder sets the transcoder for engines producing WAV parts.
// Without one those engines produce .wav artifacts.
func WithTranscoder(t Transcoder) Option {
	return func(d *Driver) { d.transcoder = t }
}

// WithRecorder sends every outcome to r.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) { d.recorder = r }
}

// New returns a driver writing status lines to w. cfg should already be
// normalized.
func New(cfg types.NarrationConfig, engine speech.Engine, w io.Writer, opts ...Option) *Driver {
	d := &Driver{cfg: cfg, engine: engine, w: w, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ArtifactName returns the file name of the artifact narrating label.
func ArtifactName(stem string, label types.Label, sep, ext string) string {
	return stem + sep + string(label) + "." + ext
}

// Ext returns the extension artifacts are written with.
func (d *Driver) Ext() string {
	if d.wavFallback() {
		return "wav"
	}
	return d.cfg.Audio.Format
}

// wavFallback reports whether WAV parts cannot be transcoded.
func (d *Driver) wavFallback() bool {
	return !d.engine.Output().Encoded && d.transcoder == nil
}

// Run narrates docs in order and prints a summary line. It stops between
// sections when ctx is cancelled and returns ErrCancelled with the totals
// so far.
func (d *Driver) Run(ctx context.Context, docs []types.Document) (types.Summary, error) {
	var sum types.Summary
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("creating output directory: %w", err)
	}
	if d.wavFallback() && d.cfg.Audio.Format != "wav" {
		fmt.Fprintf(d.w, "warning: no transcoder available, writing .wav artifacts\n")
	}

	var runErr error
	for _, doc := range docs {
		if ctx.Err() != nil {
			runErr = ErrCancelled
			break
		}
		sum.Documents++
		outcomes, err := d.document(ctx, doc, &sum)
		for _, o := range outcomes {
			sum.Add(o)
		}
		if errors.Is(err, ErrUnrecognized) {
			sum.Unrecognized++
			continue
		}
		if err != nil {
			runErr = err
			break
		}
	}

	fmt.Fprintf(d.w, "\nNarration summary: %d documents, %d created, %d skipped, %d failed, %d unrecognized (%d chunks, %d intermediate files)\n",
		sum.Documents, sum.Created, sum.Skipped, sum.Failed, sum.Unrecognized, sum.Chunks, sum.Intermediates)
	return sum, runErr
}

// Document narrates every section of doc and returns the outcomes. Chunk
// and intermediate file counts are added to sum, which may be nil; the
// caller adds the outcomes. It returns ErrUnrecognized for a document
// without sections and ErrCancelled when ctx is cancelled before a section
// starts.
func (d *Driver) Document(ctx context.Context, doc types.Document, sum *types.Summary) ([]types.Outcome, error) {
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if sum == nil {
		sum = &types.Summary{}
	}
	return d.document(ctx, doc, sum)
}

func (d *Driver) document(ctx context.Context, doc types.Document, sum *types.Summary) ([]types.Outcome, error) {
	secs := sections.Extract(doc.Raw)
	if len(secs) == 0 {
		fmt.Fprintf(d.w, "unrecognized: %s (%v)\n", doc.Stem, ErrUnrecognized)
		return nil, ErrUnrecognized
	}

	outcomes := make([]types.Outcome, 0, len(secs))
	for _, sec := range secs {
		if ctx.Err() != nil {
			return outcomes, ErrCancelled
		}
		outcomes = append(outcomes, d.section(ctx, doc, sec, sum))
	}
	return outcomes, nil
}

// section produces the artifact for one section. Failures are reported in
// the outcome, never returned.
func (d *Driver) section(ctx context.Context, doc types.Document, sec types.Section, sum *types.Summary) types.Outcome {
	path := filepath.Join(d.cfg.OutputDir, ArtifactName(doc.Stem, sec.Label, d.cfg.Audio.Separator, d.Ext()))
	o := types.Outcome{
		Document: doc.Stem,
		Label:    sec.Label,
		Path:     path,
		Chars:    utf8.RuneCountInString(sec.Body),
		Engine:   d.engine.Name(),
	}
	name := filepath.Base(path)

	if !d.cfg.Force {
		if _, err := os.Stat(path); err == nil {
			o.Status = types.OutcomeSkipped
			fmt.Fprintf(d.w, "skipped: %s (already exists)\n", name)
			return d.record(o)
		}
	}

	chunks, err := chunk.Split(sec.Body, d.limit())
	if err != nil {
		return d.fail(o, name, err)
	}

	// Engine and transcoder calls run to completion once started;
	// cancellation is honoured between sections.
	n, err := d.produce(context.WithoutCancel(ctx), chunks, path, sum)
	o.Chunks = n
	if err != nil {
		return d.fail(o, name, err)
	}

	o.Status = types.OutcomeCreated
	fmt.Fprintf(d.w, "created: %s (%d chunks)\n", name, n)
	return d.record(o)
}

// limit is the chunk size for the engine: its own input limit capped by
// the configured maximum, or unbounded when the engine has no limit.
func (d *Driver) limit() int {
	m := d.engine.MaxInput()
	if m <= 0 {
		return math.MaxInt
	}
	if c := d.cfg.Speech.MaxChunkChars; c > 0 && c < m {
		return c
	}
	return m
}

// produce synthesizes chunks into parts inside a private temp directory
// next to path, assembles them and renames the result into place. It
// returns the number of chunks synthesized.
func (d *Driver) produce(ctx context.Context, chunks []string, path string, sum *types.Summary) (int, error) {
	tmp, err := os.MkdirTemp(filepath.Dir(path), ".narrate-*")
	if err != nil {
		return 0, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	out := d.engine.Output()
	parts := make([]string, 0, len(chunks))
	for i, text := range chunks {
		part := filepath.Join(tmp, fmt.Sprintf("part%04d.%s", i, out.Ext))
		if err := d.synthesize(ctx, text, part); err != nil {
			return i, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		sum.Chunks++
		if !out.Encoded {
			sum.Intermediates++
		}
		parts = append(parts, part)
		if d.cfg.Verbose {
			fmt.Fprintf(d.w, "  chunk %d/%d: %d chars\n", i+1, len(chunks), utf8.RuneCountInString(text))
		}
	}

	assembled := filepath.Join(tmp, filepath.Base(path))
	ext := d.Ext()
	switch {
	case out.Encoded:
		err = concatFiles(parts, assembled)
	case len(parts) == 1 && ext == out.Ext:
		assembled = parts[0]
	case d.transcoder != nil:
		err = d.transcoder.Transcode(ctx, parts, assembled, d.cfg.Audio.Bitrate)
	default:
		err = fmt.Errorf("joining %d WAV parts requires a transcoder", len(parts))
	}
	if err != nil {
		return len(parts), err
	}

	if err := os.Rename(assembled, path); err != nil {
		return len(parts), fmt.Errorf("moving artifact into place: %w", err)
	}
	return len(parts), nil
}

// synthesize renders one chunk in a fresh session that is always closed.
func (d *Driver) synthesize(ctx context.Context, text, dst string) (err error) {
	s, err := d.engine.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening %s session: %w", d.engine.Name(), err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s session: %w", d.engine.Name(), cerr)
		}
	}()
	return s.Synthesize(ctx, text, dst)
}

func (d *Driver) fail(o types.Outcome, name string, err error) types.Outcome {
	o.Status = types.OutcomeFailed
	o.Error = err.Error()
	fmt.Fprintf(d.w, "failed:  %s (%v)\n", name, err)
	return d.record(o)
}

func (d *Driver) record(o types.Outcome) types.Outcome {
	o.At = d.now().UTC()
	if d.recorder != nil {
		if err := d.recorder.Record(o); err != nil {
			fmt.Fprintf(d.w, "warning: recording %s: %v\n", filepath.Base(o.Path), err)
		}
	}
	return o
}

// concatFiles writes the contents of parts, in order, to dst.
func concatFiles(parts []string, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	for _, p := range parts {
		if err := appendFile(f, p); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func appendFile(w io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening part: %w", err)
	}
	defer in.Close()
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("copying part %s: %w", filepath.Base(path), err)
	}
	return nil
}
