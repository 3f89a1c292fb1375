// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/card-narrator/internal/command"
	"github.com/pdiddy/card-narrator/internal/document"
	"github.com/pdiddy/card-narrator/internal/ledger"
	"github.com/pdiddy/card-narrator/internal/narrate"
	"github.com/pdiddy/card-narrator/internal/speech"
	"github.com/pdiddy/card-narrator/internal/transcode"
	"github.com/pdiddy/card-narrator/pkg/types"
)

var narrateCmd = &cobra.Command{
	Use:   "narrate",
	Short: "Synthesize one audio file per section of each card description",
	Long: `Narrate reads every Markdown file in the input directory (sorted by name),
extracts its Past, Present, Future and General sections, and writes
<stem>__<Label>.<format> into the output directory. Descriptions without
section headings are narrated whole as General.

Existing files are skipped, so an interrupted run resumes where it left
off. Use --force to regenerate and --only to restrict the run to matching
file names.`,
	PreRunE: bindNarrationFlags,
	RunE:    runNarrate,
}

func runNarrate(cmd *cobra.Command, args []string) error {
	cfg, err := narrationConfig()
	if err != nil {
		return err
	}

	paths, err := document.Discover(cfg.InputDir, cfg.Only)
	if err != nil {
		return err
	}
	docs, _ := document.LoadAll(paths, os.Stdout)

	p, err := newPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	started := time.Now()
	sum, runErr := p.driver.Run(cmd.Context(), docs)
	if err := p.finish(sum, started); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return runErr
}

// pipeline holds the engine, driver and optional ledger for one command
// invocation.
type pipeline struct {
	cfg    types.NarrationConfig
	engine speech.Engine
	driver *narrate.Driver
	ledger *ledger.Ledger
}

// newPipeline builds the engine and driver selected by cfg. A missing
// transcoder is a warning: WAV engines then write .wav files.
func newPipeline(cfg types.NarrationConfig, w io.Writer) (*pipeline, error) {
	runner := command.New()
	engine, err := speech.New(cfg.Speech, cfg.Audio.Format, runner)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "Speech engine: %s\n", engine.Name())

	var opts []narrate.Option
	tc, err := transcode.Locate(cfg.Audio.FFmpeg, runner)
	switch {
	case err == nil:
		fmt.Fprintf(os.Stderr, "Transcoder: %s\n", tc.Path())
		opts = append(opts, narrate.WithTranscoder(tc))
	case errors.Is(err, transcode.ErrTranscoderNotFound):
		if !engine.Output().Encoded {
			fmt.Fprintf(os.Stderr, "warning: %v; set --ffmpeg or %s\n", err, transcode.EnvPath)
		}
	default:
		return nil, err
	}

	p := &pipeline{cfg: cfg, engine: engine}
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath, engine.Name())
		if err != nil {
			return nil, err
		}
		p.ledger = l
		opts = append(opts, narrate.WithRecorder(l))
	}
	p.driver = narrate.New(cfg, engine, w, opts...)
	return p, nil
}

// finish closes the ledger run and writes the report when configured.
func (p *pipeline) finish(sum types.Summary, started time.Time) error {
	var errs []error
	var runID string
	if p.ledger != nil {
		runID = p.ledger.RunID()
		if err := p.ledger.Finish(sum); err != nil {
			errs = append(errs, err)
		}
	}
	if p.cfg.ReportPath != "" {
		r := ledger.Report{
			RunID:      runID,
			StartedAt:  started.UTC(),
			FinishedAt: time.Now().UTC(),
			Engine:     p.engine.Name(),
			InputDir:   p.cfg.InputDir,
			OutputDir:  p.cfg.OutputDir,
			Summary:    sum,
		}
		if err := ledger.WriteReport(p.cfg.ReportPath, r); err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", p.cfg.ReportPath)
		}
	}
	return errors.Join(errs...)
}

// Close releases the ledger.
func (p *pipeline) Close() error {
	if p.ledger == nil {
		return nil
	}
	return p.ledger.Close()
}

func init() {
	addNarrationFlags(narrateCmd.Flags())
	rootCmd.AddCommand(narrateCmd)
}
