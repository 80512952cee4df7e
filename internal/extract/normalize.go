// Package extract builds the aggregated, searchable corpus of source
// document text that field resolution runs against.
package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics and collapses runs of whitespace while
// preserving case and line breaks. Corpus text is stored folded so
// matching works across languages without gating on the document
// language.
func Fold(s string) string {
	folded, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		folded = s
	}
	return collapseWhitespace(folded)
}

// Canon is the canonical comparison form: folded, lowercased, and with
// line breaks flattened to spaces.
func Canon(s string) string {
	return strings.ToLower(strings.ReplaceAll(Fold(strings.TrimSpace(s)), "\n", " "))
}

// collapseWhitespace squeezes runs of whitespace to a single space, or a
// single newline if the run contained one. Line structure survives so
// line-oriented fields (addresses) stay matchable.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	sawNewline := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			if r == '\n' || r == '\r' {
				sawNewline = true
			}
			continue
		}
		if inSpace && b.Len() > 0 {
			if sawNewline {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		inSpace = false
		sawNewline = false
		b.WriteRune(r)
	}
	return b.String()
}
