// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cards canonicalizes Major Arcana file names so descriptions sort
// by card number: "The Fool.md" becomes "00_the_fool.md", "fool-r.md"
// becomes "00_the_fool_r.md".
package cards

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Deck selects the naming table.
type Deck string

const (
	DeckEnglish Deck = "en"
	DeckItalian Deck = "it"
)

// Card identifies a Major Arcana card by number and canonical slug.
type Card struct {
	Number   int
	Slug     string
	Reversed bool
}

// Stem returns the canonical file stem, e.g. "08_strength_r".
func (c Card) Stem() string {
	s := fmt.Sprintf("%02d_%s", c.Number, c.Slug)
	if c.Reversed {
		s += "_r"
	}
	return s
}

// Rider-Waite numbering: 8 is Strength, 11 is Justice.
var english = [22]string{
	"the_fool", "the_magician", "the_high_priestess", "the_empress",
	"the_emperor", "the_hierophant", "the_lovers", "the_chariot",
	"strength", "the_hermit", "wheel_of_fortune", "justice",
	"the_hanged_man", "death", "temperance", "the_devil",
	"the_tower", "the_star", "the_moon", "the_sun",
	"judgement", "the_world",
}

var italian = [22]string{
	"il_matto", "il_mago", "la_papessa", "l_imperatrice",
	"l_imperatore", "il_papa", "gli_amanti", "il_carro",
	"la_forza", "l_eremita", "la_ruota_della_fortuna", "la_giustizia",
	"l_appeso", "la_morte", "la_temperanza", "il_diavolo",
	"la_torre", "la_stella", "la_luna", "il_sole",
	"il_giudizio", "il_mondo",
}

// aliases maps article-free variants to the article-free canonical form.
var aliases = map[Deck]map[string]string{
	DeckEnglish: {
		"judgment":       "judgement",
		"wheel":          "wheel_of_fortune",
		"hanged":         "hanged_man",
		"priestess":      "high_priestess",
		"pope":           "hierophant",
		"lover":          "lovers",
		"last_judgement": "judgement",
	},
	DeckItalian: {
		"bagatto":          "mago",
		"folle":            "matto",
		"innamorati":       "amanti",
		"ruota":            "ruota_della_fortuna",
		"ruota_di_fortuna": "ruota_della_fortuna",
		"sacerdotessa":     "papessa",
		"appiccato":        "appeso",
		"impiccato":        "appeso",
		"giudizio_finale":  "giudizio",
		"mondo_intero":     "mondo",
	},
}

// articles are stripped before matching so "the_strength" and "strength"
// resolve alike.
var articles = []string{"the_", "il_", "lo_", "la_", "l_", "gli_", "le_", "i_"}

var (
	reNonWord  = regexp.MustCompile(`[^\pL\pN_]+`)
	reUnders   = regexp.MustCompile(`_+`)
	rePrefix   = regexp.MustCompile(`^\d{1,2}_+`)
	reReversed = regexp.MustCompile(`_r$`)
)

// table is the lookup built for one deck.
type table struct {
	slugs  [22]string
	byCore map[string]int
	alias  map[string]string
}

var tables = map[Deck]*table{
	DeckEnglish: newTable(english, aliases[DeckEnglish]),
	DeckItalian: newTable(italian, aliases[DeckItalian]),
}

func newTable(slugs [22]string, alias map[string]string) *table {
	t := &table{slugs: slugs, byCore: make(map[string]int, len(slugs)), alias: alias}
	for n, s := range slugs {
		t.byCore[stripArticle(s)] = n
	}
	return t
}

// ParseDeck maps a deck name to a Deck.
func ParseDeck(s string) (Deck, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "english":
		return DeckEnglish, nil
	case "it", "italian", "italiano":
		return DeckItalian, nil
	default:
		return "", fmt.Errorf("unknown deck %q (want en or it)", s)
	}
}

// Slug returns the canonical slug of card number n in deck.
func Slug(deck Deck, n int) (string, bool) {
	t, ok := tables[deck]
	if !ok || n < 0 || n >= len(t.slugs) {
		return "", false
	}
	return t.slugs[n], true
}

// Canonical resolves a file stem to its card. An existing NN_ prefix is
// ignored and an _r suffix marks a reversed card.
func Canonical(stem string, deck Deck) (Card, bool) {
	t, ok := tables[deck]
	if !ok {
		return Card{}, false
	}
	s := rePrefix.ReplaceAllString(NormalizeSlug(stem), "")
	reversed := reReversed.MatchString(s)
	if reversed {
		s = reReversed.ReplaceAllString(s, "")
	}

	core := stripArticle(s)
	if a, ok := t.alias[core]; ok {
		core = a
	}
	n, ok := t.byCore[core]
	if !ok {
		return Card{}, false
	}
	return Card{Number: n, Slug: t.slugs[n], Reversed: reversed}, true
}

// NormalizeSlug lowercases s, removes accents and turns every run of
// non-word characters into a single underscore.
func NormalizeSlug(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	folded = reNonWord.ReplaceAllString(folded, "_")
	folded = reUnders.ReplaceAllString(folded, "_")
	return strings.Trim(folded, "_")
}

func stripArticle(s string) string {
	for _, a := range articles {
		if rest, ok := strings.CutPrefix(s, a); ok && rest != "" {
			return rest
		}
	}
	return s
}
