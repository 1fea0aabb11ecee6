// Package matching aligns a predicted entity timeline against a ground-truth
// timeline. Matching is one-to-one within each entity type: every ground
// truth mention ends up in exactly one match record, every prediction in at
// most one, and cross-type pairs are never considered.
package matching

import (
	"fmt"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// Default matcher parameters.
const (
	// DefaultThreshold is the minimum similarity for a true-positive match.
	DefaultThreshold = 0.8

	// DefaultPositionTolerance is the timeline distance (normalized 0-100
	// units) at which the position similarity component reaches zero.
	DefaultPositionTolerance = 10
)

// Outcome classifies a match record.
type Outcome string

const (
	// OutcomeTruePositive pairs a ground-truth mention with a prediction.
	OutcomeTruePositive Outcome = "true_positive"

	// OutcomeFalseNegative is a ground-truth mention with no accepted
	// prediction.
	OutcomeFalseNegative Outcome = "false_negative"

	// OutcomeFalsePositive is a prediction that no ground-truth mention
	// consumed.
	OutcomeFalsePositive Outcome = "false_positive"
)

// Match associates zero-or-one ground-truth mention with zero-or-one
// predicted mention of the same type. Never mutated after creation.
type Match struct {
	Type    timeline.EntityType `json:"entity_type"`
	Outcome Outcome             `json:"outcome"`

	// Truth is set for true positives and false negatives.
	Truth *timeline.Mention `json:"truth,omitempty"`

	// Predicted is set for true positives and false positives.
	Predicted *timeline.Mention `json:"predicted,omitempty"`

	// Score is the similarity in [0,1]; only meaningful for true positives.
	Score float64 `json:"score"`
}

// Result is the complete alignment: every mention in G and P exactly once.
type Result struct {
	Matches []Match `json:"matches"`
}

// TruePositives returns the true-positive records in result order.
func (r *Result) TruePositives() []Match {
	return r.byOutcome(OutcomeTruePositive)
}

// FalseNegatives returns the false-negative records in result order.
func (r *Result) FalseNegatives() []Match {
	return r.byOutcome(OutcomeFalseNegative)
}

// FalsePositives returns the false-positive records in result order.
func (r *Result) FalsePositives() []Match {
	return r.byOutcome(OutcomeFalsePositive)
}

func (r *Result) byOutcome(o Outcome) []Match {
	var out []Match
	for _, m := range r.Matches {
		if m.Outcome == o {
			out = append(out, m)
		}
	}
	return out
}

// Config holds matcher parameters. The zero value is not usable; call
// DefaultConfig and override as needed.
type Config struct {
	// Types is the recognized entity type set. Mentions outside it fail
	// validation before any scoring.
	Types timeline.TypeSet

	// Threshold is the minimum similarity score for accepting a match.
	Threshold float64

	// PositionTolerance bounds the position similarity component.
	PositionTolerance int

	// Weights controls the similarity blend.
	Weights Weights
}

// DefaultConfig returns a Config with the default type set, threshold, and
// text-only similarity weights.
func DefaultConfig() Config {
	return Config{
		Types:             timeline.DefaultTypeSet(),
		Threshold:         DefaultThreshold,
		PositionTolerance: DefaultPositionTolerance,
		Weights:           DefaultWeights(),
	}
}

// Matcher aligns prediction timelines against ground truth. It is stateless
// across calls; Match is a pure function of its inputs.
type Matcher struct {
	cfg    Config
	scorer scorer
}

// NewMatcher creates a Matcher with the given configuration.
func NewMatcher(cfg Config) (*Matcher, error) {
	if len(cfg.Types) == 0 {
		return nil, fmt.Errorf("matcher: type set is empty: %w", eterrors.ErrInvalidInput)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("matcher: threshold %v outside [0,1]: %w", cfg.Threshold, eterrors.ErrInvalidInput)
	}
	if cfg.Weights.total() <= 0 {
		return nil, fmt.Errorf("matcher: similarity weights sum to zero: %w", eterrors.ErrInvalidInput)
	}
	return &Matcher{
		cfg:    cfg,
		scorer: scorer{weights: cfg.Weights, positionTolerance: cfg.PositionTolerance},
	}, nil
}

// Match aligns prediction against truth and classifies every mention.
//
// Both timelines are validated up front; a mention with an unrecognized type
// or a negative position fails the whole run before any scoring. For each
// ground-truth mention (per type, in timeline order) the highest-scoring
// unconsumed prediction of the same type is accepted when it meets the
// threshold. Ties break toward the prediction closest in position, then
// toward the earlier prediction in original order. Predictions left over in
// a type partition become false positives.
func (m *Matcher) Match(truth, prediction timeline.Timeline) (*Result, error) {
	if err := truth.Validate(m.cfg.Types); err != nil {
		return nil, fmt.Errorf("ground truth: %w", err)
	}
	if err := prediction.Validate(m.cfg.Types); err != nil {
		return nil, fmt.Errorf("prediction: %w", err)
	}

	truthByType := truth.ByType()
	predByType := prediction.ByType()

	result := &Result{}

	// Iterate the configured type set in sorted order so output ordering is
	// deterministic regardless of map iteration.
	for _, t := range m.cfg.Types.Types() {
		m.matchType(t, truthByType[t], predByType[t], result)
	}

	return result, nil
}

// matchType runs the alignment for a single type partition.
func (m *Matcher) matchType(t timeline.EntityType, truth, pred timeline.Timeline, result *Result) {
	consumed := make([]bool, len(pred))

	for gi := range truth {
		g := truth[gi]

		bestIdx := -1
		bestScore := 0.0
		bestDist := 0

		for pi := range pred {
			if consumed[pi] {
				continue
			}
			p := pred[pi]

			score := m.scorer.score(g, p)
			dist := absInt(g.Position - p.Position)

			// Strictly-better score wins; on an exact tie prefer the closer
			// position, and on a position tie keep the earlier prediction.
			if bestIdx == -1 || score > bestScore || (score == bestScore && dist < bestDist) {
				bestIdx = pi
				bestScore = score
				bestDist = dist
			}
		}

		if bestIdx >= 0 && bestScore >= m.cfg.Threshold {
			consumed[bestIdx] = true
			p := pred[bestIdx]
			result.Matches = append(result.Matches, Match{
				Type:      t,
				Outcome:   OutcomeTruePositive,
				Truth:     &g,
				Predicted: &p,
				Score:     bestScore,
			})
		} else {
			result.Matches = append(result.Matches, Match{
				Type:    t,
				Outcome: OutcomeFalseNegative,
				Truth:   &g,
			})
		}
	}

	for pi := range pred {
		if consumed[pi] {
			continue
		}
		p := pred[pi]
		result.Matches = append(result.Matches, Match{
			Type:      t,
			Outcome:   OutcomeFalsePositive,
			Predicted: &p,
		})
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
