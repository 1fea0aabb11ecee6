package scoring

import (
	"fmt"

	"github.com/antzucaro/matchr"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
	"github.com/otherjamesbrown/entitime/pkg/textnorm"
)

// wordCoder maps distinct words onto private-use runes so a word sequence can
// be fed through a character-level edit distance. Both sequences being
// compared must share one coder so equal words get equal runes.
type wordCoder struct {
	codes map[string]rune
	next  rune
}

func newWordCoder() *wordCoder {
	// Plane 15 private use area: 65536 code points, far beyond any
	// transcript vocabulary.
	return &wordCoder{codes: make(map[string]rune), next: 0xF0000}
}

// encode returns the rune string for a word sequence.
func (c *wordCoder) encode(words []string) string {
	runes := make([]rune, len(words))
	for i, w := range words {
		r, ok := c.codes[w]
		if !ok {
			r = c.next
			c.codes[w] = r
			c.next++
		}
		runes[i] = r
	}
	return string(runes)
}

// WordErrors returns the word-level edit distance (insertions + deletions +
// substitutions) between a reference and a hypothesis word sequence.
func WordErrors(reference, hypothesis []string) int {
	coder := newWordCoder()
	return matchr.Levenshtein(coder.encode(reference), coder.encode(hypothesis))
}

// WER computes the plain word error rate between two transcripts. Both are
// normalized identically (lowercased, punctuation stripped, diacritics
// folded, whitespace collapsed) before comparison; the result is
// (S + D + I) / len(reference words).
func WER(referenceText, hypothesisText string) (float64, error) {
	ref := textnorm.Words(referenceText)
	if len(ref) == 0 {
		return 0, fmt.Errorf("reference transcript has no words: %w", eterrors.ErrEmptyInput)
	}

	hyp := textnorm.Words(hypothesisText)
	return float64(WordErrors(ref, hyp)) / float64(len(ref)), nil
}
