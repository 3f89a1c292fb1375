// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns Markdown blocks into plain prose suitable for
// narration.
package normalize

import (
	"regexp"
	"strings"
)

// rule is a single regexp substitution.
type rule struct {
	re   *regexp.Regexp
	repl string
}

// lineRules remove whole structural lines. They run after fences are
// unwrapped and before the inline rules, so rule dashes are never read as
// inline markup.
var lineRules = []rule{
	// Horizontal rules: three or more -, *, _ or = with optional spacing.
	{regexp.MustCompile(`(?m)^[ \t]*(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,}|(?:=[ \t]*){3,})$`), ""},
	// ATX headings, text discarded.
	{regexp.MustCompile(`(?m)^[ \t]*#{1,6}(?:[ \t].*)?$`), ""},
}

var (
	reFence         = regexp.MustCompile("^[ \\t]*(`{3,}|~{3,})")
	reHeadingMarker = regexp.MustCompile(`^[ \t]*#{1,6}(?:[ \t]+|$)`)
)

var inlineRules = []rule{
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.+?)__`), "$1"},
	{regexp.MustCompile(`\*([^*\n]+)\*`), "$1"},
	{regexp.MustCompile(`(^|[^\pL\pN_])_([^_\n]+)_([^\pL\pN_]|$)`), "$1$2$3"},
	{regexp.MustCompile("`([^`\n]*)`"), "$1"},
	// Images before links: the link pattern would otherwise keep the alt text.
	{regexp.MustCompile(`!\[[^\]\n]*\]\([^)\n]*\)`), ""},
	{regexp.MustCompile(`\[([^\]\n]+)\]\([^)\n]*\)`), "$1"},
	{regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`), ""},
}

var (
	reLineEnd       = regexp.MustCompile(`\r\n?`)
	reTrailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
	reSpaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
)

// Text strips Markdown presentation syntax from raw and canonicalizes
// whitespace. Text(Text(s)) == Text(s) for every s.
func Text(raw string) string {
	t := raw
	// Every rule only deletes characters (or swaps \r for \n), so the
	// fixpoint is reached in at most len(raw)+1 passes.
	for {
		next := pass(t)
		if next == t {
			return t
		}
		t = next
	}
}

func pass(s string) string {
	s = reLineEnd.ReplaceAllString(s, "\n")
	s = unfence(s)
	for _, r := range lineRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	for _, r := range inlineRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	s = reTrailingSpace.ReplaceAllString(s, "")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	s = reSpaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Inline strips inline markup from a single line such as a heading title
// and collapses its whitespace to single spaces.
func Inline(s string) string {
	for _, r := range inlineRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return strings.Join(strings.Fields(s), " ")
}

// unfence blanks code fence delimiter lines and keeps the fenced content.
// Heading markers inside a fence lose their #s so the line reads as text
// instead of being removed as a heading. An unclosed fence runs to the end.
func unfence(s string) string {
	if !strings.Contains(s, "```") && !strings.Contains(s, "~~~") {
		return s
	}
	lines := strings.Split(s, "\n")
	out := lines[:0]
	var open string
	for _, line := range lines {
		if m := reFence.FindStringSubmatch(line); m != nil {
			switch {
			case open == "":
				open = m[1]
			case m[1][0] == open[0] && len(m[1]) >= len(open):
				open = ""
			default:
				out = append(out, line)
				continue
			}
			out = append(out, "")
			continue
		}
		if open != "" {
			line = reHeadingMarker.ReplaceAllString(line, "")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
