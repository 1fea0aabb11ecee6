package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
	"github.com/otherjamesbrown/entitime/pkg/matching"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

func newTestAggregator(t *testing.T, mutate func(*Config)) *Aggregator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := NewAggregator(cfg)
	require.NoError(t, err)
	return a
}

func tp(typ timeline.EntityType, truthText, predText string, score float64) matching.Match {
	return matching.Match{
		Type:      typ,
		Outcome:   matching.OutcomeTruePositive,
		Truth:     &timeline.Mention{Text: truthText, Type: typ},
		Predicted: &timeline.Mention{Text: predText, Type: typ},
		Score:     score,
	}
}

func fn(typ timeline.EntityType, truthText string) matching.Match {
	return matching.Match{
		Type:    typ,
		Outcome: matching.OutcomeFalseNegative,
		Truth:   &timeline.Mention{Text: truthText, Type: typ},
	}
}

func fp(typ timeline.EntityType, predText string) matching.Match {
	return matching.Match{
		Type:      typ,
		Outcome:   matching.OutcomeFalsePositive,
		Predicted: &timeline.Mention{Text: predText, Type: typ},
	}
}

func TestNewAggregator_Validation(t *testing.T) {
	t.Run("empty type set rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Types = nil
		_, err := NewAggregator(cfg)
		assert.True(t, eterrors.IsInvalidInput(err))
	})

	t.Run("unknown averaging rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Averaging = "weighted"
		_, err := NewAggregator(cfg)
		assert.True(t, eterrors.IsInvalidInput(err))
	})

	t.Run("negative entity error weight rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EntityErrorWeight = -1
		_, err := NewAggregator(cfg)
		assert.True(t, eterrors.IsInvalidInput(err))
	})
}

func TestSummarize_PerTypeCounts(t *testing.T) {
	a := newTestAggregator(t, nil)

	result := &matching.Result{Matches: []matching.Match{
		tp(timeline.EntityTypeName, "Jane Doe", "Jane Doe", 1.0),
		fn(timeline.EntityTypeName, "John Smith"),
		tp(timeline.EntityTypeOrganization, "Acme Corp", "Acme Corporation", 0.9),
		fp(timeline.EntityTypeOrganization, "Globex"),
	}}

	summary, err := a.Summarize(result, "jane doe and john smith met acme corp", "jane doe met acme corporation and globex")
	require.NoError(t, err)

	names := summary.PerType[timeline.EntityTypeName]
	assert.Equal(t, 1, names.TruePositives)
	assert.Equal(t, 1, names.FalseNegatives)
	assert.Equal(t, 0, names.FalsePositives)
	assert.InDelta(t, 1.0, names.Precision, 1e-9)
	assert.InDelta(t, 0.5, names.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, names.F1, 1e-9)

	orgs := summary.PerType[timeline.EntityTypeOrganization]
	assert.Equal(t, 1, orgs.TruePositives)
	assert.Equal(t, 0, orgs.FalseNegatives)
	assert.Equal(t, 1, orgs.FalsePositives)
	assert.InDelta(t, 0.5, orgs.Precision, 1e-9)
	assert.InDelta(t, 1.0, orgs.Recall, 1e-9)

	assert.Equal(t, 2, summary.TotalMatches)
	assert.Equal(t, 1, summary.TotalUnmatchedTruth)
	assert.Equal(t, 1, summary.TotalUnmatchedPredicted)
	assert.Equal(t, 4, summary.TotalEntities)
	assert.InDelta(t, 0.5, summary.MatchRate, 1e-9)
	assert.InDelta(t, 0.25, summary.UnmatchedTruthRate, 1e-9)
	assert.InDelta(t, 0.25, summary.UnmatchedPredictedRate, 1e-9)
	assert.InDelta(t, 0.95, summary.AverageMatchScore, 1e-9)
}

func TestSummarize_MicroVersusMacro(t *testing.T) {
	// NAME: tp=1 fn=1 -> F1 2/3. ORGANIZATION: tp=1 -> F1 1.
	matches := []matching.Match{
		tp(timeline.EntityTypeName, "Jane Doe", "Jane Doe", 1.0),
		fn(timeline.EntityTypeName, "John Smith"),
		tp(timeline.EntityTypeOrganization, "Acme Corp", "Acme Corp", 1.0),
	}
	truthText := "jane doe and john smith met acme corp"
	predText := "jane doe met acme corp"

	t.Run("micro pools counts", func(t *testing.T) {
		a := newTestAggregator(t, nil)
		summary, err := a.Summarize(&matching.Result{Matches: matches}, truthText, predText)
		require.NoError(t, err)

		// Pooled: tp=2 fn=1 fp=0 -> precision 1, recall 2/3, F1 0.8.
		assert.Equal(t, AveragingMicro, summary.Averaging)
		assert.InDelta(t, 0.8, summary.Accuracy, 1e-9)
	})

	t.Run("macro averages per-type F1", func(t *testing.T) {
		a := newTestAggregator(t, func(cfg *Config) { cfg.Averaging = AveragingMacro })
		summary, err := a.Summarize(&matching.Result{Matches: matches}, truthText, predText)
		require.NoError(t, err)

		assert.Equal(t, AveragingMacro, summary.Averaging)
		assert.InDelta(t, (2.0/3.0+1.0)/2.0, summary.Accuracy, 1e-9)
	})
}

func TestSummarize_PerfectRun(t *testing.T) {
	a := newTestAggregator(t, nil)

	result := &matching.Result{Matches: []matching.Match{
		tp(timeline.EntityTypeName, "Jane Doe", "Jane Doe", 1.0),
		tp(timeline.EntityTypeOrganization, "Acme Corp", "Acme Corp", 1.0),
	}}

	text := "jane doe met acme corp"
	summary, err := a.Summarize(result, text, text)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, summary.Accuracy, 1e-9)
	assert.Equal(t, 0.0, summary.PNER)
	assert.Equal(t, 0.0, summary.PNWER)
	assert.Equal(t, 0.0, summary.TranscriptWER)
	assert.Equal(t, 0.0, summary.EntityAwareWER)
	assert.InDelta(t, 1.0, summary.AverageMatchScore, 1e-9)
}

func TestSummarize_ProperNounMetrics(t *testing.T) {
	a := newTestAggregator(t, nil)

	result := &matching.Result{Matches: []matching.Match{
		tp(timeline.EntityTypeName, "Jane Doe", "Jane Doe", 1.0),
		tp(timeline.EntityTypeOrganization, "Acme Corp", "Acme Corporation", 0.9),
	}}

	summary, err := a.Summarize(result,
		"jane doe met acme corp",
		"jane doe met acme corporation")
	require.NoError(t, err)

	// One of two matched pairs differs after normalization.
	assert.InDelta(t, 0.5, summary.PNWER, 1e-9)

	// PNER averages (1 - JaroWinkler): zero for the identical pair, small
	// but positive for the near-miss.
	assert.Greater(t, summary.PNER, 0.0)
	assert.Less(t, summary.PNER, 0.5)
}

func TestSummarize_PNWERCountsUnmatched(t *testing.T) {
	a := newTestAggregator(t, nil)

	result := &matching.Result{Matches: []matching.Match{
		tp(timeline.EntityTypeName, "Jane Doe", "Jane Doe", 1.0),
		fn(timeline.EntityTypeName, "John Smith"),
		fp(timeline.EntityTypeOrganization, "Globex"),
	}}

	summary, err := a.Summarize(result,
		"jane doe and john smith spoke",
		"jane doe spoke of globex")
	require.NoError(t, err)

	// (0 substitutions + 1 fn + 1 fp) / 2 ground-truth mentions.
	assert.InDelta(t, 1.0, summary.PNWER, 1e-9)
}

func TestSummarize_EntityAwareWER(t *testing.T) {
	result := &matching.Result{Matches: []matching.Match{
		tp(timeline.EntityTypeName, "Jane Doe", "Jane Doe", 1.0),
		tp(timeline.EntityTypeOrganization, "Acme Corp", "Acme Corporation", 0.9),
	}}
	truthText := "jane doe met acme corp"
	predText := "jane doe met acme corporation"

	t.Run("weight one reduces to plain WER", func(t *testing.T) {
		a := newTestAggregator(t, func(cfg *Config) { cfg.EntityErrorWeight = 1.0 })
		summary, err := a.Summarize(result, truthText, predText)
		require.NoError(t, err)

		assert.InDelta(t, 0.2, summary.TranscriptWER, 1e-9)
		assert.InDelta(t, summary.TranscriptWER, summary.EntityAwareWER, 1e-9)
	})

	t.Run("default weight doubles entity errors", func(t *testing.T) {
		a := newTestAggregator(t, nil)
		summary, err := a.Summarize(result, truthText, predText)
		require.NoError(t, err)

		// Plain: 1 error over 5 words. Entity-attributable: 1 error over 4
		// entity reference words. With w=2: (1+1)/(5+4).
		assert.InDelta(t, 0.2, summary.TranscriptWER, 1e-9)
		assert.InDelta(t, 2.0/9.0, summary.EntityAwareWER, 1e-9)
	})

	t.Run("higher weight pushes the rate up", func(t *testing.T) {
		low := newTestAggregator(t, func(cfg *Config) { cfg.EntityErrorWeight = 1.0 })
		high := newTestAggregator(t, func(cfg *Config) { cfg.EntityErrorWeight = 4.0 })

		lowSummary, err := low.Summarize(result, truthText, predText)
		require.NoError(t, err)
		highSummary, err := high.Summarize(result, truthText, predText)
		require.NoError(t, err)

		assert.Greater(t, highSummary.EntityAwareWER, lowSummary.EntityAwareWER)
	})
}

func TestSummarize_EmptyResult(t *testing.T) {
	a := newTestAggregator(t, nil)

	summary, err := a.Summarize(&matching.Result{}, "some words here", "some words here")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalEntities)
	assert.Equal(t, 0.0, summary.Accuracy)
	assert.Equal(t, 0.0, summary.PNER)
	assert.Equal(t, 0.0, summary.PNWER)
	assert.Equal(t, 0.0, summary.TranscriptWER)
}

func TestSummarize_InputValidation(t *testing.T) {
	a := newTestAggregator(t, nil)
	ok := &matching.Result{}

	t.Run("empty truth transcript", func(t *testing.T) {
		_, err := a.Summarize(ok, "  ", "words")
		assert.True(t, eterrors.IsEmptyInput(err))
	})

	t.Run("empty prediction transcript", func(t *testing.T) {
		_, err := a.Summarize(ok, "words", "")
		assert.True(t, eterrors.IsEmptyInput(err))
	})

	t.Run("unknown type in match record", func(t *testing.T) {
		result := &matching.Result{Matches: []matching.Match{
			fn("LOCATION", "Paris"),
		}}
		_, err := a.Summarize(result, "words", "words")
		assert.True(t, eterrors.IsUnsupportedType(err))
	})

	t.Run("unknown outcome in match record", func(t *testing.T) {
		result := &matching.Result{Matches: []matching.Match{
			{Type: timeline.EntityTypeName, Outcome: "partial"},
		}}
		_, err := a.Summarize(result, "words", "words")
		assert.True(t, eterrors.IsInvalidInput(err))
	})
}
