// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold italic and inline code keep their text",
			in:   "**Bold** and *italic* and `code`",
			want: "Bold and italic and code",
		},
		{
			name: "underscore emphasis",
			in:   "__strong__ and _soft_ words",
			want: "strong and soft words",
		},
		{
			name: "snake case identifiers are not emphasis",
			in:   "the snake_case_name stays",
			want: "the snake_case_name stays",
		},
		{
			name: "line endings unified",
			in:   "Line\r\nTwo\rThree",
			want: "Line\nTwo\nThree",
		},
		{
			name: "heading lines dropped with their text",
			in:   "# Title\nText under the title.\n### Sub heading\nMore.",
			want: "Text under the title.\n\nMore.",
		},
		{
			name: "hashtag without space is prose",
			in:   "#tarot reading",
			want: "#tarot reading",
		},
		{
			name: "horizontal rules removed",
			in:   "Intro\n---\nOutro\n* * *\nEnd",
			want: "Intro\n\nOutro\n\nEnd",
		},
		{
			name: "blank line runs collapse to one",
			in:   "Para\n\n\n\n\nNext",
			want: "Para\n\nNext",
		},
		{
			name: "whitespace runs collapse",
			in:   "a   b\t\tc  ",
			want: "a b c",
		},
		{
			name: "blockquote markers stripped",
			in:   "> quoted line\n>another",
			want: "quoted line\nanother",
		},
		{
			name: "links keep text, images dropped",
			in:   "See [the deck](https://example.com/deck) now. ![card](fool.png)",
			want: "See the deck now.",
		},
		{
			name: "code fences dropped, content kept",
			in:   "Before\n```text\ninside the fence\n```\nAfter",
			want: "Before\n\ninside the fence\n\nAfter",
		},
		{
			name: "heading inside a fence keeps its text",
			in:   "```\n## Past\n```\ntext",
			want: "Past\n\ntext",
		},
		{
			name: "unclosed fence runs to the end",
			in:   "Intro\n~~~\n# Future\nstill fenced",
			want: "Intro\n\nFuture\nstill fenced",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "\n\n   Hello.   \n\n",
			want: "Hello.",
		},
		{
			name: "only markup yields empty",
			in:   "## Heading\n---\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"**Bold** *it* `code` [link](u) ![img](i)",
		"`## looks like a heading`",
		"***triple*** emphasis",
		"> > nested quote",
		"a\r\n\r\n\r\n\r\nb",
		"* * *\n- - -\n___",
		"`` `nested` ``",
		"_a_ _b_ _c_",
		"text  with\t\ttabs   \n\n\n\n\nand gaps",
		"[**bold link**](http://x) and __under__",
		"```\n# not a heading in a fence\n```",
		"````\n```\n## nested fence\n```\n````\n~~~\n### tilde",
		"Plain prose. Nothing to do!",
		"",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestInline(t *testing.T) {
	assert.Equal(t, "Meaning in the Past", Inline("  **Meaning**   in the _Past_ \n"))
	assert.Equal(t, "Future", Inline("`Future`"))
}
