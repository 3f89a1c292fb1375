// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Label names a narrated subsection of a card description. The vocabulary
// is closed: unknown section names fold into LabelGeneral.
type Label string

const (
	LabelPast    Label = "Past"
	LabelPresent Label = "Present"
	LabelFuture  Label = "Future"
	LabelGeneral Label = "General"
)

// Labels lists the vocabulary in canonical output order.
var Labels = []Label{LabelPast, LabelPresent, LabelFuture, LabelGeneral}

// labelWords maps lowercased section words (English and Italian) to labels.
var labelWords = map[string]Label{
	"past":     LabelPast,
	"passato":  LabelPast,
	"present":  LabelPresent,
	"presente": LabelPresent,
	"future":   LabelFuture,
	"futuro":   LabelFuture,
	"general":  LabelGeneral,
	"generale": LabelGeneral,
}

// ParseLabel maps a section word to its canonical Label, ignoring case and
// surrounding punctuation. The boolean is false when the word is not part
// of the vocabulary.
func ParseLabel(word string) (Label, bool) {
	w := strings.ToLower(strings.Trim(word, " \t:.-–—*_"))
	l, ok := labelWords[w]
	return l, ok
}

// Document is a card description read from disk. It is never mutated after
// loading.
type Document struct {
	// Path is the source file path.
	Path string `json:"path" yaml:"path"`

	// Stem is the filename without extension (e.g. "00_the_fool"). Artifact
	// names derive from it.
	Stem string `json:"stem" yaml:"stem"`

	// Title comes from the front matter "title" key when present.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Raw is the Markdown body with any front matter removed.
	Raw string `json:"-" yaml:"-"`
}

// Section is a labeled piece of normalized prose destined for one artifact.
type Section struct {
	Label Label  `json:"label" yaml:"label"`
	Body  string `json:"body" yaml:"body"`
}

// SectionSet holds the sections of one document in canonical label order.
type SectionSet []Section

// Get returns the body for label and whether it is present.
func (s SectionSet) Get(label Label) (string, bool) {
	for _, sec := range s {
		if sec.Label == label {
			return sec.Body, true
		}
	}
	return "", false
}

// Map returns the sections as a label to body map.
func (s SectionSet) Map() map[Label]string {
	m := make(map[Label]string, len(s))
	for _, sec := range s {
		m[sec.Label] = sec.Body
	}
	return m
}

// OutcomeStatus reports what happened to one artifact during a run.
type OutcomeStatus string

const (
	OutcomeCreated OutcomeStatus = "created"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the per-artifact result of a narration run.
type Outcome struct {
	// Document is the stem of the source document.
	Document string `json:"document" yaml:"document"`

	// Label is the section the artifact narrates.
	Label Label `json:"label" yaml:"label"`

	// Path is the artifact path (existing, created or intended).
	Path string `json:"path" yaml:"path"`

	Status OutcomeStatus `json:"status" yaml:"status"`

	// Chunks is the number of synthesis calls made for the artifact.
	Chunks int `json:"chunks" yaml:"chunks"`

	// Chars is the rune length of the narrated body.
	Chars int `json:"chars" yaml:"chars"`

	// Engine names the synthesis engine that produced the artifact.
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`

	// Error holds the failure message for failed outcomes.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// At is when the outcome was decided.
	At time.Time `json:"at" yaml:"at"`
}

// Summary totals a narration run. Outcomes lists every artifact decision in
// processing order.
type Summary struct {
	Documents     int `json:"documents" yaml:"documents"`
	Created       int `json:"created" yaml:"created"`
	Skipped       int `json:"skipped" yaml:"skipped"`
	Failed        int `json:"failed" yaml:"failed"`
	Unrecognized  int `json:"unrecognized" yaml:"unrecognized"`
	Chunks        int `json:"chunks" yaml:"chunks"`
	Intermediates int `json:"intermediates" yaml:"intermediates"`

	Outcomes []Outcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// Total returns the number of artifacts considered.
func (s Summary) Total() int {
	return s.Created + s.Skipped + s.Failed
}

// HasFailures reports whether any artifact failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Add counts o and appends it to Outcomes.
func (s *Summary) Add(o Outcome) {
	switch o.Status {
	case OutcomeCreated:
		s.Created++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}
