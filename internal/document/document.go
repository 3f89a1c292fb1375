// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document discovers and loads card description files.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/card-narrator/pkg/types"
)

var (
	// ErrInputMissing is returned when the input directory does not exist.
	ErrInputMissing = errors.New("input directory not found")
	// ErrNoInput is returned when the input directory holds no matching
	// documents.
	ErrNoInput = errors.New("no matching documents")
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// extensions lists the accepted document extensions, lowercase.
var extensions = map[string]bool{".md": true, ".markdown": true}

// meta is the subset of front matter the narrator reads.
type meta struct {
	Title string `yaml:"title" toml:"title" json:"title"`
}

// Discover returns the Markdown files directly inside dir, sorted by name.
// When only is non-empty, files whose stem does not contain it
// (case-insensitive) are left out.
func Discover(dir, only string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputMissing, dir)
		}
		return nil, fmt.Errorf("checking input directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	filter := strings.ToLower(only)
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsMarkdown(e.Name()) {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(Stem(e.Name())), filter) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		if only != "" {
			return nil, fmt.Errorf("%w in %s matching %q", ErrNoInput, dir, only)
		}
		return nil, fmt.Errorf("%w in %s", ErrNoInput, dir)
	}
	return paths, nil
}

// IsMarkdown reports whether name has a Markdown extension.
func IsMarkdown(name string) bool {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads the document at path. Invalid UTF-8 is decoded as
// Windows-1252. A leading byte order mark and any front matter are removed
// from Raw; a front matter title becomes the document title.
func Load(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	text := Decode(data)

	doc := types.Document{
		Path: path,
		Stem: Stem(path),
		Raw:  text,
	}

	var m meta
	body, err := frontmatter.Parse(strings.NewReader(text), &m)
	if err == nil {
		doc.Raw = string(body)
		doc.Title = strings.TrimSpace(m.Title)
	}
	// A malformed block is narrated as written.
	if doc.Title == "" {
		doc.Title = doc.Stem
	}
	return doc, nil
}

// LoadAll loads every path in order. A file that cannot be read gets a
// failed: line on w and is left out; the returned count says how many.
func LoadAll(paths []string, w io.Writer) ([]types.Document, int) {
	docs := make([]types.Document, 0, len(paths))
	failed := 0
	for _, p := range paths {
		d, err := Load(p)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(p), err)
			failed++
			continue
		}
		docs = append(docs, d)
	}
	return docs, failed
}

// Decode returns data as a string, dropping a UTF-8 byte order mark and
// falling back to Windows-1252 when data is not valid UTF-8.
func Decode(data []byte) string {
	data = bytes.TrimPrefix(data, bom)
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		// Windows-1252 maps every byte; keep the replacement-char form.
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}
