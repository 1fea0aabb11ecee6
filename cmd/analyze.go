package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/entitime/pkg/logging"
	"github.com/otherjamesbrown/entitime/pkg/matching"
	"github.com/otherjamesbrown/entitime/pkg/scoring"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// Analyze command flags.
var (
	analyzeEntityTypes  []string
	analyzeThreshold    float64
	analyzeAveraging    string
	analyzeEntityWeight float64
)

// matchesOutput is the matches.json envelope.
type matchesOutput struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Matches     []matching.Match `json:"matches"`
}

// statisticsOutput is the statistics.json envelope.
type statisticsOutput struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Statistics  *scoring.Summary `json:"statistics"`
}

// NewAnalyzeCommand creates the 'analyze' command.
func NewAnalyzeCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <truth-timeline> <truth-transcript> <pred-timeline> <pred-transcript> <output-dir>",
		Short: "Match a predicted timeline against ground truth and score it",
		Long: `Align a predicted entity timeline and transcript against a ground-truth
timeline and transcript. Matching is one-to-one within each entity type,
using fuzzy text similarity with a configurable acceptance threshold.

Writes two JSON files into the output directory:

  matches.json      Every mention classified true positive, false negative,
                    or false positive, with similarity scores.
  statistics.json   Per-type precision/recall counts, overall accuracy,
                    transcript WER, and entity-aware error rates (PNER,
                    PNWER, entity-weighted WER).

Nothing is written when any input fails validation.

Examples:
  entitime analyze truth/timeline.json truth/transcript.txt \
      pred/timeline.json pred/transcript.txt ./results

  # Stricter matching, macro-averaged accuracy
  entitime analyze truth/timeline.json truth/transcript.txt \
      pred/timeline.json pred/transcript.txt ./results \
      --threshold 0.9 --averaging macro`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, deps, args[0], args[1], args[2], args[3], args[4])
		},
	}

	cmd.Flags().StringSliceVar(&analyzeEntityTypes, "entity-types", nil, "Entity types to recognize (default from config: NAME,ORGANIZATION)")
	cmd.Flags().Float64Var(&analyzeThreshold, "threshold", -1, "Minimum similarity score for a match (default from config: 0.8)")
	cmd.Flags().StringVar(&analyzeAveraging, "averaging", "", "Accuracy averaging: micro or macro (default from config: micro)")
	cmd.Flags().Float64Var(&analyzeEntityWeight, "entity-error-weight", -1, "Weight of word errors inside entity spans (default from config: 2.0)")

	return cmd
}

// runAnalyze executes the matching pipeline.
func runAnalyze(cmd *cobra.Command, deps *Deps, truthTimelinePath, truthTranscriptPath, predTimelinePath, predTranscriptPath, outputDir string) error {
	cfg, types, err := loadConfigAndTypes(deps, analyzeEntityTypes)
	if err != nil {
		return err
	}

	if analyzeThreshold >= 0 {
		cfg.Match.Threshold = analyzeThreshold
	}
	if analyzeAveraging != "" {
		cfg.Scoring.Averaging = analyzeAveraging
	}
	if analyzeEntityWeight >= 0 {
		cfg.Scoring.EntityErrorWeight = analyzeEntityWeight
	}

	logger := deps.Logger()

	// Load and validate everything before any scoring: a malformed input
	// fails the run with no output files.
	truthTimeline, err := timeline.Load(truthTimelinePath, types)
	if err != nil {
		return err
	}
	predTimeline, err := timeline.Load(predTimelinePath, types)
	if err != nil {
		return err
	}
	truthTranscript, err := timeline.LoadTranscript(truthTranscriptPath)
	if err != nil {
		return err
	}
	predTranscript, err := timeline.LoadTranscript(predTranscriptPath)
	if err != nil {
		return err
	}

	matcher, err := matching.NewMatcher(matching.Config{
		Types:             types,
		Threshold:         cfg.Match.Threshold,
		PositionTolerance: cfg.Match.PositionTolerance,
		Weights:           cfg.Match.Weights,
	})
	if err != nil {
		return err
	}

	result, err := matcher.Match(truthTimeline, predTimeline)
	if err != nil {
		return err
	}

	aggregator, err := scoring.NewAggregator(scoring.Config{
		Types:             types,
		Averaging:         scoring.Averaging(cfg.Scoring.Averaging),
		EntityErrorWeight: cfg.Scoring.EntityErrorWeight,
	})
	if err != nil {
		return err
	}

	summary, err := aggregator.Summarize(result, truthTranscript, predTranscript)
	if err != nil {
		return err
	}

	// Computation succeeded; stamp run provenance and write outputs.
	runID := uuid.NewString()
	now := time.Now().UTC()

	if err := ensureOutputDir(outputDir); err != nil {
		return err
	}

	matchesPath := filepath.Join(outputDir, "matches.json")
	if err := writeJSONFile(matchesPath, matchesOutput{RunID: runID, GeneratedAt: now, Matches: result.Matches}); err != nil {
		return err
	}
	logger.Info("matches written", logging.F("path", matchesPath))

	statsPath := filepath.Join(outputDir, "statistics.json")
	if err := writeJSONFile(statsPath, statisticsOutput{RunID: runID, GeneratedAt: now, Statistics: summary}); err != nil {
		return err
	}
	logger.Info("statistics written", logging.F("path", statsPath))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Matched entities:                 %d\n", summary.TotalMatches)
	fmt.Fprintf(out, "Unmatched ground truth entities:  %d\n", summary.TotalUnmatchedTruth)
	fmt.Fprintf(out, "Unmatched predicted entities:     %d\n", summary.TotalUnmatchedPredicted)
	fmt.Fprintf(out, "Accuracy (%s):                 %.4f\n", summary.Averaging, summary.Accuracy)
	fmt.Fprintf(out, "Transcript WER:                   %.4f\n", summary.TranscriptWER)
	fmt.Fprintf(out, "Entity-aware WER:                 %.4f\n", summary.EntityAwareWER)
	return nil
}
