// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch monitors the description directory and hands changed
// Markdown files to a handler, one at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/card-narrator/internal/document"
)

// DefaultSettle is how long a file must stay quiet before it is handled.
const DefaultSettle = 500 * time.Millisecond

// Handler processes one changed document.
type Handler func(ctx context.Context, path string) error

// Watcher delivers created or written Markdown files to a Handler after
// they have settled. Handlers run sequentially on the Run goroutine.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	w       io.Writer
	fs      *fsnotify.Watcher
}

// New starts watching dir. Close releases the watch.
func New(dir string, settle time.Duration, handler Handler, w io.Writer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{dir: dir, settle: settle, handler: handler, w: w, fs: fsw}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks until ctx is done or a handler reports cancellation, and
// returns the context error.
func (w *Watcher) Run(ctx context.Context) error {
	fmt.Fprintf(w.w, "watching: %s\n", w.dir)
	return w.loop(ctx, w.fs.Events, w.fs.Errors)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	pending := make(map[string]time.Time)
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !document.IsMarkdown(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
			timer.Reset(w.settle)

		case err, ok := <-errs:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			fmt.Fprintf(w.w, "warning: watcher: %v\n", err)

		case <-timer.C:
			if err := w.flush(ctx, pending); err != nil {
				return err
			}
			if len(pending) > 0 {
				timer.Reset(w.settle)
			}
		}
	}
}

// flush handles every pending path that has been quiet for the settle
// period, in name order.
func (w *Watcher) flush(ctx context.Context, pending map[string]time.Time) error {
	now := time.Now()
	var ready []string
	for p, last := range pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, p)
		}
	}
	sort.Strings(ready)

	for _, p := range ready {
		delete(pending, p)
		if err := w.handler(ctx, p); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(w.w, "failed:  %s (%v)\n", p, err)
		}
	}
	return nil
}
