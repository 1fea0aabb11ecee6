// Package textnorm provides the text normalization applied before any
// similarity scoring or word-error-rate computation. Ground truth and
// prediction are always normalized identically: lowercased, diacritics
// folded, punctuation stripped, whitespace collapsed.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes unicode characters and drops combining marks, so
// "José" normalizes the same as "Jose". ASR output and human transcripts
// disagree on accents constantly.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical form of text used for all comparisons.
func Normalize(text string) string {
	folded, _, err := transform.String(foldDiacritics, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '\'' || r == '’':
			// Drop apostrophes entirely: "o'brien" -> "obrien".
		default:
			// Other punctuation becomes a word boundary.
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the normalized word sequence of text.
func Words(text string) []string {
	n := Normalize(text)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}
