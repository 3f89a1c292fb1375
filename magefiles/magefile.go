//go:build mage

// Package main contains Mage build targets for card-narrator developer tooling.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a narration run expects.
var projectDirs = []string{
	"descriptions",
	"audio",
	".secrets",
	"state",
}

const (
	binDir  = "bin"
	binName = "card-narrator"
	cmdPkg  = "./cmd/card-narrator"
)

func binPath() string { return filepath.Join(binDir, binName) }

// Init creates the working directories for a narration project.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath(), version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Narrate builds the CLI and narrates descriptions/ into audio/ with the
// settings from card-narrator.yaml.
func Narrate() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "narrate", "--ledger", filepath.Join("state", "ledger.db"))
}

// Status prints the latest ledger outcome of every artifact.
func Status() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "status", "--ledger", filepath.Join("state", "ledger.db"))
}

// Stats prints project metrics: Go production/test lines and description and
// audio counts.
func Stats() error {
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}
	descriptions, err := countFiles("descriptions", ".md", ".markdown")
	if err != nil {
		return err
	}
	artifacts, err := countFiles("audio", ".mp3", ".wav", ".opus", ".aac", ".flac")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Card descriptions:              %d\n", descriptions)
	fmt.Printf("Audio files:                    %d\n", artifacts)
	return nil
}

// countGoLines counts non-blank lines in production and test Go files,
// skipping _examples and hidden directories.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}

// countFiles counts files in dir with one of exts. A missing dir counts 0.
func countFiles(dir string, exts ...string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				n++
				break
			}
		}
	}
	return n, nil
}
