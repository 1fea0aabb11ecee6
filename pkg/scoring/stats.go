// Package scoring reduces match records and transcript pairs into the
// summary metrics: per-type precision/recall counts, an overall
// fuzzy-matching accuracy, transcript word error rate, and entity-aware
// variants (PNER, PNWER, entity-weighted WER).
//
// Everything here is a deterministic function of the match records and the
// two transcripts. There is no randomness and accumulation always follows
// the sorted type order.
package scoring

import (
	"fmt"
	"strings"

	"github.com/xrash/smetrics"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
	"github.com/otherjamesbrown/entitime/pkg/matching"
	"github.com/otherjamesbrown/entitime/pkg/textnorm"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// Averaging selects how per-type precision/recall collapse into the single
// accuracy scalar.
type Averaging string

const (
	// AveragingMicro pools tp/fp/fn across all types before computing F1.
	// Types with many mentions dominate.
	AveragingMicro Averaging = "micro"

	// AveragingMacro computes F1 per type and averages the types that have
	// any mentions. Every type counts equally.
	AveragingMacro Averaging = "macro"
)

// DefaultEntityErrorWeight doubles the cost of word errors inside entity
// spans relative to generic transcription errors.
const DefaultEntityErrorWeight = 2.0

// Jaro-Winkler parameters for PNER (standard boost threshold and prefix size).
const (
	jaroWinklerBoostThreshold = 0.7
	jaroWinklerPrefixSize     = 4
)

// Config holds aggregator parameters.
type Config struct {
	// Types is the recognized entity type set. A match record referencing a
	// type outside it fails the run.
	Types timeline.TypeSet

	// Averaging selects micro or macro accuracy.
	Averaging Averaging

	// EntityErrorWeight is the weight w applied to word errors inside
	// ground-truth entity spans when computing the entity-aware WER:
	//
	//	entity_aware_wer = (E + (w-1)*Ee) / (N + (w-1)*Ne)
	//
	// where E/N are the plain transcript errors and reference length, and
	// Ee/Ne are the errors and reference words attributable to entity
	// mentions. w=1 reduces exactly to the plain WER.
	EntityErrorWeight float64
}

// DefaultConfig returns a Config with the default type set, micro averaging,
// and the default entity error weight.
func DefaultConfig() Config {
	return Config{
		Types:             timeline.DefaultTypeSet(),
		Averaging:         AveragingMicro,
		EntityErrorWeight: DefaultEntityErrorWeight,
	}
}

// TypeCounts holds the per-type classification counts and derived ratios.
type TypeCounts struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// Summary is the terminal artifact of an analysis run.
type Summary struct {
	PerType map[timeline.EntityType]TypeCounts `json:"per_type"`

	TotalEntities           int `json:"total_entities"`
	TotalMatches            int `json:"total_matches"`
	TotalUnmatchedTruth     int `json:"total_unmatched_truth"`
	TotalUnmatchedPredicted int `json:"total_unmatched_predicted"`

	MatchRate              float64 `json:"match_rate"`
	UnmatchedTruthRate     float64 `json:"unmatched_truth_rate"`
	UnmatchedPredictedRate float64 `json:"unmatched_predicted_rate"`
	AverageMatchScore      float64 `json:"average_match_score"`

	// Accuracy is the overall fuzzy-matching accuracy (micro or macro F1
	// depending on configuration).
	Accuracy  float64   `json:"accuracy"`
	Averaging Averaging `json:"averaging"`

	// PNER is the proper-noun error rate: mean (1 - JaroWinkler) over
	// matched entity pairs.
	PNER float64 `json:"pner"`

	// PNWER is the proper-noun word error rate over match records:
	// (substitutions + unmatched truth + unmatched predictions) divided by
	// the ground-truth mention count.
	PNWER float64 `json:"pnwer"`

	// TranscriptWER is the plain word error rate between the two
	// transcripts.
	TranscriptWER float64 `json:"transcript_wer"`

	// EntityAwareWER re-weights word errors inside entity spans by the
	// configured entity error weight.
	EntityAwareWER    float64 `json:"entity_aware_wer"`
	EntityErrorWeight float64 `json:"entity_error_weight"`
}

// Aggregator computes summaries. Stateless across calls.
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an Aggregator with the given configuration.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if len(cfg.Types) == 0 {
		return nil, fmt.Errorf("aggregator: type set is empty: %w", eterrors.ErrInvalidInput)
	}
	switch cfg.Averaging {
	case AveragingMicro, AveragingMacro:
	default:
		return nil, fmt.Errorf("aggregator: unknown averaging %q: %w", cfg.Averaging, eterrors.ErrInvalidInput)
	}
	if cfg.EntityErrorWeight < 0 {
		return nil, fmt.Errorf("aggregator: entity error weight %v is negative: %w", cfg.EntityErrorWeight, eterrors.ErrInvalidInput)
	}
	return &Aggregator{cfg: cfg}, nil
}

// Summarize reduces match records and the two raw transcripts into the
// summary metrics. Both transcripts must be non-empty.
func (a *Aggregator) Summarize(result *matching.Result, truthText, predictedText string) (*Summary, error) {
	if strings.TrimSpace(truthText) == "" {
		return nil, fmt.Errorf("ground truth transcript: %w", eterrors.ErrEmptyInput)
	}
	if strings.TrimSpace(predictedText) == "" {
		return nil, fmt.Errorf("prediction transcript: %w", eterrors.ErrEmptyInput)
	}

	perType := make(map[timeline.EntityType]TypeCounts)
	for _, rec := range result.Matches {
		if !a.cfg.Types.Contains(rec.Type) {
			return nil, fmt.Errorf("match record references type %q: %w", rec.Type, eterrors.ErrUnsupportedType)
		}
		counts := perType[rec.Type]
		switch rec.Outcome {
		case matching.OutcomeTruePositive:
			counts.TruePositives++
		case matching.OutcomeFalsePositive:
			counts.FalsePositives++
		case matching.OutcomeFalseNegative:
			counts.FalseNegatives++
		default:
			return nil, fmt.Errorf("match record has outcome %q: %w", rec.Outcome, eterrors.ErrInvalidInput)
		}
		perType[rec.Type] = counts
	}

	summary := &Summary{
		PerType:           make(map[timeline.EntityType]TypeCounts, len(perType)),
		Averaging:         a.cfg.Averaging,
		EntityErrorWeight: a.cfg.EntityErrorWeight,
	}

	var totalTP, totalFP, totalFN int
	var macroF1Sum float64
	var macroTypes int

	// Sorted type order keeps floating-point accumulation reproducible.
	for _, t := range a.cfg.Types.Types() {
		counts, ok := perType[t]
		if !ok {
			summary.PerType[t] = TypeCounts{}
			continue
		}

		counts.Precision = safeRatio(counts.TruePositives, counts.TruePositives+counts.FalsePositives)
		counts.Recall = safeRatio(counts.TruePositives, counts.TruePositives+counts.FalseNegatives)
		counts.F1 = f1(counts.Precision, counts.Recall)
		summary.PerType[t] = counts

		totalTP += counts.TruePositives
		totalFP += counts.FalsePositives
		totalFN += counts.FalseNegatives
		macroF1Sum += counts.F1
		macroTypes++
	}

	summary.TotalMatches = totalTP
	summary.TotalUnmatchedTruth = totalFN
	summary.TotalUnmatchedPredicted = totalFP
	summary.TotalEntities = totalTP + totalFN + totalFP

	if summary.TotalEntities > 0 {
		total := float64(summary.TotalEntities)
		summary.MatchRate = float64(totalTP) / total
		summary.UnmatchedTruthRate = float64(totalFN) / total
		summary.UnmatchedPredictedRate = float64(totalFP) / total
	}

	switch a.cfg.Averaging {
	case AveragingMacro:
		if macroTypes > 0 {
			summary.Accuracy = macroF1Sum / float64(macroTypes)
		}
	default:
		precision := safeRatio(totalTP, totalTP+totalFP)
		recall := safeRatio(totalTP, totalTP+totalFN)
		summary.Accuracy = f1(precision, recall)
	}

	a.scoreEntityMetrics(result, summary)

	if err := a.scoreTranscripts(result, summary, truthText, predictedText); err != nil {
		return nil, err
	}

	return summary, nil
}

// scoreEntityMetrics fills in average match score, PNER, and PNWER from the
// match records alone.
func (a *Aggregator) scoreEntityMetrics(result *matching.Result, summary *Summary) {
	var scoreSum float64
	var distanceSum float64
	var substitutions int
	matched := 0

	for _, rec := range result.Matches {
		if rec.Outcome != matching.OutcomeTruePositive {
			continue
		}
		matched++
		scoreSum += rec.Score

		truthNorm := textnorm.Normalize(rec.Truth.Text)
		predNorm := textnorm.Normalize(rec.Predicted.Text)
		distanceSum += 1.0 - smetrics.JaroWinkler(truthNorm, predNorm, jaroWinklerBoostThreshold, jaroWinklerPrefixSize)
		if truthNorm != predNorm {
			substitutions++
		}
	}

	if matched > 0 {
		summary.AverageMatchScore = scoreSum / float64(matched)
		summary.PNER = distanceSum / float64(matched)
	}

	truthMentions := summary.TotalMatches + summary.TotalUnmatchedTruth
	if truthMentions > 0 {
		errors := substitutions + summary.TotalUnmatchedTruth + summary.TotalUnmatchedPredicted
		summary.PNWER = float64(errors) / float64(truthMentions)
	}
}

// scoreTranscripts fills in the plain and entity-aware word error rates.
func (a *Aggregator) scoreTranscripts(result *matching.Result, summary *Summary, truthText, predictedText string) error {
	refWords := textnorm.Words(truthText)
	hypWords := textnorm.Words(predictedText)
	if len(refWords) == 0 {
		return fmt.Errorf("ground truth transcript has no words after normalization: %w", eterrors.ErrEmptyInput)
	}

	totalErrors := WordErrors(refWords, hypWords)
	summary.TranscriptWER = float64(totalErrors) / float64(len(refWords))

	// Entity-attributable errors: word-level edit distance between each
	// matched pair's texts, plus full deletion/insertion cost for unmatched
	// mentions. Reference entity words come from the ground-truth side.
	var entityErrors, entityRefWords int
	for _, rec := range result.Matches {
		switch rec.Outcome {
		case matching.OutcomeTruePositive:
			truthWords := textnorm.Words(rec.Truth.Text)
			entityErrors += WordErrors(truthWords, textnorm.Words(rec.Predicted.Text))
			entityRefWords += len(truthWords)
		case matching.OutcomeFalseNegative:
			truthWords := textnorm.Words(rec.Truth.Text)
			entityErrors += len(truthWords)
			entityRefWords += len(truthWords)
		case matching.OutcomeFalsePositive:
			entityErrors += len(textnorm.Words(rec.Predicted.Text))
		}
	}

	w := a.cfg.EntityErrorWeight
	numerator := float64(totalErrors) + (w-1)*float64(entityErrors)
	denominator := float64(len(refWords)) + (w-1)*float64(entityRefWords)
	if numerator < 0 {
		numerator = 0
	}
	if denominator > 0 {
		summary.EntityAwareWER = numerator / denominator
	}

	return nil
}

// safeRatio returns num/den, or 0 when den is 0.
func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// f1 is the harmonic mean of precision and recall, 0 when both are 0.
func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
