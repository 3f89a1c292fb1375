// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits narration text into pieces that fit a synthesis
// service's input limit, cutting at sentence boundaries where possible.
package chunk

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidMax is returned when the maximum chunk length is below 1.
var ErrInvalidMax = errors.New("chunk: maximum length must be at least 1")

// Split returns the chunks of text in reading order. Lengths are counted in
// runes and every chunk is at most maxLen runes long.
//
// Text that fits is returned whole (trimmed). Longer text is cut into
// sentences which are packed greedily, joined by a single space. A sentence
// longer than maxLen is hard-wrapped into maxLen-rune slices. Blank text
// yields no chunks.
func Split(text string, maxLen int) ([]string, error) {
	if maxLen < 1 {
		return nil, ErrInvalidMax
	}
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(t) <= maxLen {
		return []string{t}, nil
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, s := range Sentences(t) {
		n := utf8.RuneCountInString(s)
		switch {
		case n > maxLen:
			flush()
			chunks = append(chunks, wrap(s, maxLen)...)
		case curLen == 0:
			cur.WriteString(s)
			curLen = n
		case curLen+1+n <= maxLen:
			cur.WriteByte(' ')
			cur.WriteString(s)
			curLen += 1 + n
		default:
			flush()
			cur.WriteString(s)
			curLen = n
		}
	}
	flush()
	return chunks, nil
}

// Sentences splits text after each sentence-terminal mark (. ! ? …) that is
// followed by whitespace. The whitespace at a cut is dropped; units are
// trimmed and never empty.
func Sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminal(r) {
			continue
		}
		j := i
		for j < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r2) {
				break
			}
			j += s2
		}
		if j == i {
			continue
		}
		if s := strings.TrimSpace(text[start:i]); s != "" {
			out = append(out, s)
		}
		start, i = j, j
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

// wrap cuts s into consecutive slices of at most n runes. Slices made only
// of whitespace carry nothing to narrate and are dropped.
func wrap(s string, n int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/n+1)
	for i := 0; i < len(runes); i += n {
		end := min(i+n, len(runes))
		piece := string(runes[i:end])
		if strings.TrimSpace(piece) == "" {
			continue
		}
		out = append(out, piece)
	}
	return out
}
