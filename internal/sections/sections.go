// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sections locates the labeled subsections of a card description
// and returns their narration text.
//
// Headings are located on a CommonMark parse of the document, so heading
// markers inside code blocks or other containers never open a section.
// A heading of level 2 or deeper opens a section when it names a label,
// either bare ("## Past", "### Futuro") or after a descriptive prefix
// ("## Meaning in the Present", "## Significato nel Passato",
// "## Meaning - Future"). A prefixed heading naming an unknown word folds
// into General. The section runs until the next heading of the same or a
// higher level, or the next section heading.
//
// A document without any section heading narrates as a single General
// section. A document with some section headings yields only those
// labels; missing labels are never filled in.
package sections

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/card-narrator/internal/normalize"
	"github.com/pdiddy/card-narrator/pkg/types"
)

// reMarker matches a descriptive prefix, an optional joiner and captures
// the label word that follows.
var reMarker = regexp.MustCompile(
	`(?i)^(?:meaning|significato|significance)\b\s*` +
		`(?:(?:in\s+the|of\s+the|in|nel|del|della|for\s+the)\b|[-–—:])?\s*(\pL+)`)

var parser = goldmark.New().Parser()

// heading is a top-level heading with its byte offsets in the source.
type heading struct {
	level     int
	start     int // first byte of the heading line
	bodyStart int // first byte after the heading (and setext underline)
	label     types.Label
	isSection bool
}

// Extract returns the sections of a Markdown document in canonical label
// order. Sections whose normalized body is empty are omitted, so the result
// is empty only for documents without any narratable prose.
func Extract(raw string) types.SectionSet {
	src := []byte(strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(raw))
	headings := scan(src)

	found := false
	for _, h := range headings {
		if h.isSection {
			found = true
			break
		}
	}
	if !found {
		body := normalize.Text(string(src))
		if body == "" {
			return nil
		}
		return types.SectionSet{{Label: types.LabelGeneral, Body: body}}
	}

	bodies := make(map[types.Label][]string)
	for i, h := range headings {
		if !h.isSection {
			continue
		}
		end := len(src)
		for _, next := range headings[i+1:] {
			if next.isSection || next.level <= h.level {
				end = next.start
				break
			}
		}
		body := normalize.Text(string(src[h.bodyStart:end]))
		if body == "" {
			continue
		}
		bodies[h.label] = append(bodies[h.label], body)
	}

	var out types.SectionSet
	for _, l := range types.Labels {
		if parts, ok := bodies[l]; ok {
			out = append(out, types.Section{Label: l, Body: strings.Join(parts, "\n\n")})
		}
	}
	return out
}

// Classify reports the label a heading title opens, if any. Titles are
// matched case-insensitively after inline markup is stripped.
func Classify(title string) (types.Label, bool) {
	t := strings.TrimRight(normalize.Inline(title), " :.")
	if t == "" {
		return "", false
	}
	if l, ok := types.ParseLabel(t); ok {
		return l, true
	}
	if m := reMarker.FindStringSubmatch(t); m != nil {
		if l, ok := types.ParseLabel(m[1]); ok {
			return l, true
		}
		return types.LabelGeneral, true
	}
	return "", false
}

// scan collects the top-level headings of src in document order.
func scan(src []byte) []heading {
	doc := parser.Parse(text.NewReader(src))

	var out []heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			// Empty ATX heading ("##"): no offsets to anchor on.
			continue
		}

		first, last := lines.At(0), lines.At(lines.Len()-1)
		start := lineStart(src, first.Start)
		// Setext segments keep their trailing newline; anchor on the last
		// byte of the segment so both forms land on the following line.
		bodyStart := nextLine(src, max(last.Stop-1, last.Start))
		if !isATX(src[start:first.Start]) {
			bodyStart = nextLine(src, bodyStart) // skip the setext underline
		}

		var title []string
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			title = append(title, string(seg.Value(src)))
		}

		entry := heading{level: h.Level, start: start, bodyStart: bodyStart}
		if h.Level >= 2 {
			entry.label, entry.isSection = Classify(strings.Join(title, " "))
		}
		out = append(out, entry)
	}
	return out
}

func isATX(prefix []byte) bool {
	return bytes.IndexByte(prefix, '#') >= 0
}

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// nextLine returns the offset just past the newline ending the line that
// contains pos, or len(src).
func nextLine(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	i := bytes.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	return pos + i + 1
}
