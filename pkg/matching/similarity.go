package matching

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/antzucaro/matchr"

	"github.com/otherjamesbrown/entitime/pkg/textnorm"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// Weights controls how the per-pair similarity score is blended. Each
// component contributes proportionally to its weight; components whose
// weight is zero are never computed. Weights need not sum to 1 - the blend
// is divided by the total weight of the components that actually applied.
type Weights struct {
	// Text weights the fuzzy similarity of the normalized mention texts.
	Text float64 `yaml:"text"`

	// Sentence weights the fuzzy similarity of the context sentences.
	// Ignored for pairs where either side has no sentence.
	Sentence float64 `yaml:"sentence"`

	// Phonetic weights the similarity of Double Metaphone codes, which
	// rescues transcription errors that mangle spelling but keep the sound
	// ("Kathryn" vs "Catherine").
	Phonetic float64 `yaml:"phonetic"`

	// Position weights proximity of the two mentions' timeline positions.
	Position float64 `yaml:"position"`
}

// DefaultWeights scores on text alone. The sentence/phonetic/position
// components exist for noisy ASR timelines and are opt-in via config.
func DefaultWeights() Weights {
	return Weights{Text: 1.0}
}

// total returns the sum of all weights.
func (w Weights) total() float64 {
	return w.Text + w.Sentence + w.Phonetic + w.Position
}

// scorer computes similarity scores between mention pairs under a fixed
// weight configuration.
type scorer struct {
	weights Weights

	// positionTolerance is the distance at which the position component
	// reaches zero.
	positionTolerance int
}

// score returns the blended similarity of (g, p) in [0,1].
//
// Identical normalized texts short-circuit to 1.0: case, whitespace,
// punctuation and diacritic differences that the normalizer collapses never
// cost score, whatever the weight configuration says.
func (s *scorer) score(g, p timeline.Mention) float64 {
	gText := textnorm.Normalize(g.Text)
	pText := textnorm.Normalize(p.Text)

	if gText == pText && gText != "" {
		return 1.0
	}

	var sum, weight float64

	if s.weights.Text > 0 {
		sum += s.weights.Text * textSimilarity(gText, pText)
		weight += s.weights.Text
	}

	if s.weights.Sentence > 0 && g.Sentence != "" && p.Sentence != "" {
		sum += s.weights.Sentence * textSimilarity(textnorm.Normalize(g.Sentence), textnorm.Normalize(p.Sentence))
		weight += s.weights.Sentence
	}

	if s.weights.Phonetic > 0 {
		sum += s.weights.Phonetic * phoneticSimilarity(gText, pText)
		weight += s.weights.Phonetic
	}

	if s.weights.Position > 0 {
		sum += s.weights.Position * s.positionSimilarity(g.Position, p.Position)
		weight += s.weights.Position
	}

	if weight == 0 {
		return 0
	}
	return sum / weight
}

// partialRatioScale discounts substring matches so a short fragment inside
// a long string never beats a full-string match outright.
const partialRatioScale = 0.9

// textSimilarity is the normalized fuzzy string similarity in [0,1]: the
// best of the whole-string ratio, a discounted substring ratio ("acme corp"
// inside "acme corporation"), and a word-order-insensitive ratio.
func textSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	best := fuzzy.Ratio(a, b)
	if partial := int(float64(fuzzy.PartialRatio(a, b)) * partialRatioScale); partial > best {
		best = partial
	}
	if tokenSort := fuzzy.TokenSortRatio(a, b); tokenSort > best {
		best = tokenSort
	}
	return float64(best) / 100.0
}

// phoneticSimilarity compares Double Metaphone codes, taking the best of the
// primary/secondary code pairings.
func phoneticSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	aPrimary, aSecondary := matchr.DoubleMetaphone(a)
	bPrimary, bSecondary := matchr.DoubleMetaphone(b)

	best := codeSimilarity(aPrimary, bPrimary)
	if alt := codeSimilarity(aSecondary, bSecondary); alt > best {
		best = alt
	}
	return best
}

// codeSimilarity is a plain ratio over two metaphone codes.
func codeSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return float64(fuzzy.Ratio(a, b)) / 100.0
}

// positionSimilarity decays linearly from 1.0 at identical positions to 0 at
// the configured tolerance.
func (s *scorer) positionSimilarity(a, b int) float64 {
	tolerance := s.positionTolerance
	if tolerance <= 0 {
		tolerance = DefaultPositionTolerance
	}

	d := a - b
	if d < 0 {
		d = -d
	}
	if d >= tolerance {
		return 0
	}
	return 1.0 - float64(d)/float64(tolerance)
}
