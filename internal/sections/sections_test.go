// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/card-narrator/pkg/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[types.Label]string
	}{
		{
			name: "meaning in the headings",
			in:   "## Meaning in the Past\nLong ago...\n## Meaning in the Present\nNow...\n",
			want: map[types.Label]string{
				types.LabelPast:    "Long ago...",
				types.LabelPresent: "Now...",
			},
		},
		{
			name: "no subsection headings falls back to General",
			in:   "# Title\nJust a paragraph, nothing special.",
			want: map[types.Label]string{
				types.LabelGeneral: "Just a paragraph, nothing special.",
			},
		},
		{
			name: "italian marker headings",
			in: "# Il Matto\nIntro ignorata.\n\n## Significato nel Passato\nPrima.\n\n" +
				"## Significato nel Presente\nOra.\n\n## Significato nel Futuro\nDopo.\n",
			want: map[types.Label]string{
				types.LabelPast:    "Prima.",
				types.LabelPresent: "Ora.",
				types.LabelFuture:  "Dopo.",
			},
		},
		{
			name: "bare and separator headings, case-insensitive",
			in:   "## PAST\nOne.\n### meaning - present\nTwo.\n## Meaning: **Future**\nThree.",
			want: map[types.Label]string{
				types.LabelPast:    "One.",
				types.LabelPresent: "Two.",
				types.LabelFuture:  "Three.",
			},
		},
		{
			name: "unknown marker label folds into General",
			in:   "## Meaning in the Love\nHearts.\n## Meaning in the Past\nBefore.",
			want: map[types.Label]string{
				types.LabelPast:    "Before.",
				types.LabelGeneral: "Hearts.",
			},
		},
		{
			name: "section stops at a structural heading of the same level",
			in:   "## Past\nKept.\n## Keywords\nNot narrated.\n",
			want: map[types.Label]string{
				types.LabelPast: "Kept.",
			},
		},
		{
			name: "deeper structural headings stay in the body without their titles",
			in:   "## Future\nFirst.\n### Advice\nSecond.\n",
			want: map[types.Label]string{
				types.LabelFuture: "First.\n\nSecond.",
			},
		},
		{
			name: "empty body means absent section",
			in:   "## Past\n---\n## Present\nHere.",
			want: map[types.Label]string{
				types.LabelPresent: "Here.",
			},
		},
		{
			name: "repeated labels are joined in order",
			in:   "## Past\nA.\n## Present\nB.\n## Past\nC.",
			want: map[types.Label]string{
				types.LabelPast:    "A.\n\nC.",
				types.LabelPresent: "B.",
			},
		},
		{
			name: "heading markers inside a code fence do not open sections",
			in:   "Intro text.\n\n```\n## Past\n```\n",
			want: map[types.Label]string{
				types.LabelGeneral: "Intro text.\n\nPast",
			},
		},
		{
			name: "fenced heading text is narrated",
			in:   "```\n## Past\n```\ntext",
			want: map[types.Label]string{
				types.LabelGeneral: "Past\n\ntext",
			},
		},
		{
			name: "setext headings",
			in:   "Past\n----\nOld times.\n\nFuture\n------\nNew times.\n",
			want: map[types.Label]string{
				types.LabelPast:   "Old times.",
				types.LabelFuture: "New times.",
			},
		},
		{
			name: "level one label headings are titles",
			in:   "# Past\nJust prose.",
			want: map[types.Label]string{
				types.LabelGeneral: "Just prose.",
			},
		},
		{
			name: "windows line endings",
			in:   "## Past\r\nLong ago.\r\n## Future\r\nSoon.\r\n",
			want: map[types.Label]string{
				types.LabelPast:   "Long ago.",
				types.LabelFuture: "Soon.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)
			assert.Equal(t, tt.want, got.Map())
		})
	}
}

func TestExtractNeverInventsLabels(t *testing.T) {
	got := Extract("## Meaning in the Past\nBefore.\n## Meaning in the Present\nNow.")
	_, hasFuture := got.Get(types.LabelFuture)
	_, hasGeneral := got.Get(types.LabelGeneral)
	assert.False(t, hasFuture)
	assert.False(t, hasGeneral)
}

func TestExtractCanonicalOrder(t *testing.T) {
	got := Extract("## Future\nC.\n## Past\nA.\n## Present\nB.")
	require.Len(t, got, 3)
	assert.Equal(t, types.LabelPast, got[0].Label)
	assert.Equal(t, types.LabelPresent, got[1].Label)
	assert.Equal(t, types.LabelFuture, got[2].Label)
}

func TestExtractEmptyDocument(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("# Only a title\n---\n"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		want  types.Label
		ok    bool
	}{
		{"Past", types.LabelPast, true},
		{"present:", types.LabelPresent, true},
		{"Meaning in the Future", types.LabelFuture, true},
		{"Meaning Past", types.LabelPast, true},
		{"Meaning – Present", types.LabelPresent, true},
		{"Significato nel Futuro", types.LabelFuture, true},
		{"Significance of the Past", types.LabelPast, true},
		{"Meaning in Love", types.LabelGeneral, true},
		{"Generale", types.LabelGeneral, true},
		{"Keywords", "", false},
		{"Meaning", "", false},
		{"Pastoral scenes", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, ok := Classify(tt.title)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
