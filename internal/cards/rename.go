// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cards

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/card-narrator/internal/document"
)

// RenameResult holds the outcome of a rename run.
type RenameResult struct {
	Copied    int
	Skipped   int
	Conflicts int
}

// Total returns the number of files considered.
func (r RenameResult) Total() int {
	return r.Copied + r.Skipped
}

// Rename copies every Markdown file in srcDir to dstDir under its canonical
// card name, printing one status line per file to w. Sources are never
// modified. A name already taken in dstDir gets a __n suffix.
func Rename(srcDir, dstDir string, deck Deck, w io.Writer) (RenameResult, error) {
	var result RenameResult

	if same, err := sameDir(srcDir, dstDir); err != nil {
		return result, err
	} else if same {
		return result, errors.New("destination must differ from source directory")
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return result, fmt.Errorf("reading %s: %w", srcDir, err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return result, fmt.Errorf("creating %s: %w", dstDir, err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() || !document.IsMarkdown(e.Name()) {
			continue
		}
		card, ok := Canonical(document.Stem(e.Name()), deck)
		if !ok {
			fmt.Fprintf(w, "skipped: %s (unrecognized card name)\n", e.Name())
			result.Skipped++
			continue
		}

		ext := strings.ToLower(filepath.Ext(e.Name()))
		dst, conflict := freeName(dstDir, card.Stem(), ext)
		if err := copyFile(filepath.Join(srcDir, e.Name()), dst); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", e.Name(), err)
			result.Skipped++
			continue
		}
		if conflict {
			result.Conflicts++
		}
		result.Copied++
		fmt.Fprintf(w, "renamed: %s -> %s\n", e.Name(), filepath.Base(dst))
	}

	fmt.Fprintf(w, "\nRename summary: %d copied, %d skipped, %d conflicts (__n suffix)\n",
		result.Copied, result.Skipped, result.Conflicts)
	return result, nil
}

// freeName returns dir/stem+ext, or the first dir/stem__n+ext not taken.
func freeName(dir, stem, ext string) (string, bool) {
	p := filepath.Join(dir, stem+ext)
	if _, err := os.Stat(p); err != nil {
		return p, false
	}
	for i := 1; ; i++ {
		p = filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, i, ext))
		if _, err := os.Stat(p); err != nil {
			return p, true
		}
	}
}

// copyFile copies src to dst keeping the permission bits and modification
// time.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
