// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/card-narrator/internal/document"
	"github.com/pdiddy/card-narrator/internal/narrate"
	"github.com/pdiddy/card-narrator/internal/watch"
	"github.com/pdiddy/card-narrator/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-narrate card descriptions as they are created or edited",
	Long: `Watch monitors the input directory and narrates a Markdown file each time
it is created or saved, regenerating that file's audio even when it already
exists. Other descriptions are left alone. Events are handled one at a time;
stop with Ctrl-C.`,
	PreRunE: bindNarrationFlags,
	RunE:    runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := narrationConfig()
	if err != nil {
		return err
	}
	if info, err := os.Stat(cfg.InputDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", document.ErrInputMissing, cfg.InputDir)
	}

	settle, _ := cmd.Flags().GetDuration("settle")
	cfg.Force = true

	p, err := newPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	var sum types.Summary
	handle := func(ctx context.Context, path string) error {
		return narrateChanged(ctx, p.driver, cfg.Only, path, &sum)
	}

	w, err := watch.New(cfg.InputDir, settle, handle, os.Stderr)
	if err != nil {
		return err
	}
	defer w.Close()

	started := time.Now()
	runErr := w.Run(cmd.Context())
	if err := p.finish(sum, started); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if errors.Is(runErr, context.Canceled) {
		return narrate.ErrCancelled
	}
	return runErr
}

// narrateChanged regenerates the artifacts of the document at path. Files
// outside the --only filter are ignored.
func narrateChanged(ctx context.Context, d *narrate.Driver, only, path string, sum *types.Summary) error {
	stem := document.Stem(path)
	if only != "" && !strings.Contains(strings.ToLower(stem), strings.ToLower(only)) {
		return nil
	}
	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	sum.Documents++
	outcomes, err := d.Document(ctx, doc, sum)
	for _, o := range outcomes {
		sum.Add(o)
	}
	if errors.Is(err, narrate.ErrUnrecognized) {
		sum.Unrecognized++
		return nil
	}
	return err
}

func init() {
	addNarrationFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("settle", watch.DefaultSettle, "quiet period after the last change before narrating")
	rootCmd.AddCommand(watchCmd)
}
