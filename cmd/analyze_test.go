package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/entitime/pkg/matching"
)

func TestNewAnalyzeCommand(t *testing.T) {
	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	require.NotNil(t, cmd)

	assert.Contains(t, cmd.Use, "analyze")
	assert.NotEmpty(t, cmd.Short)

	for _, flag := range []string{"entity-types", "threshold", "averaging", "entity-error-weight"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestAnalyzeCommand_ArgValidation(t *testing.T) {
	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"a", "b", "c"})

	assert.Error(t, cmd.Execute())
}

// analyzeFixture writes a complete truth/prediction input set and returns the
// five positional arguments.
func analyzeFixture(t *testing.T) (args []string, outDir string) {
	t.Helper()
	dir := t.TempDir()

	truthTimeline := writeTestFile(t, dir, "truth_timeline.json", `[
		{"text": "Jane Doe", "position": 5, "entity_type": "NAME"},
		{"text": "Acme Corp", "position": 60, "entity_type": "ORGANIZATION"}
	]`)
	truthTranscript := writeTestFile(t, dir, "truth.txt", "jane doe met acme corp")
	predTimeline := writeTestFile(t, dir, "pred_timeline.json", `[
		{"text": "Jane Doe", "position": 6, "entity_type": "NAME"},
		{"text": "Acme Corporation", "position": 62, "entity_type": "ORGANIZATION"}
	]`)
	predTranscript := writeTestFile(t, dir, "pred.txt", "jane doe met acme corporation")

	outDir = filepath.Join(dir, "results")
	return []string{truthTimeline, truthTranscript, predTimeline, predTranscript, outDir}, outDir
}

func TestAnalyzeCommand_WritesOutputs(t *testing.T) {
	args, outDir := analyzeFixture(t)

	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Matched entities:")
	assert.Contains(t, out.String(), "Transcript WER:")

	var matches matchesOutput
	data, err := os.ReadFile(filepath.Join(outDir, "matches.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &matches))
	assert.NotEmpty(t, matches.RunID)
	require.Len(t, matches.Matches, 2)
	for _, rec := range matches.Matches {
		assert.Equal(t, matching.OutcomeTruePositive, rec.Outcome)
	}

	var stats statisticsOutput
	data, err = os.ReadFile(filepath.Join(outDir, "statistics.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &stats))
	require.NotNil(t, stats.Statistics)

	assert.Equal(t, matches.RunID, stats.RunID)
	assert.Equal(t, 2, stats.Statistics.TotalMatches)
	assert.InDelta(t, 1.0, stats.Statistics.Accuracy, 1e-9)
	assert.InDelta(t, 0.2, stats.Statistics.TranscriptWER, 1e-9)
}

func TestAnalyzeCommand_ThresholdFlag(t *testing.T) {
	args, outDir := analyzeFixture(t)

	// At threshold 0.95 the Acme Corp / Acme Corporation pair (score 0.9)
	// must no longer match.
	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append(args, "--threshold", "0.95"))

	require.NoError(t, cmd.Execute())

	var stats statisticsOutput
	data, err := os.ReadFile(filepath.Join(outDir, "statistics.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &stats))

	assert.Equal(t, 1, stats.Statistics.TotalMatches)
	assert.Equal(t, 1, stats.Statistics.TotalUnmatchedTruth)
	assert.Equal(t, 1, stats.Statistics.TotalUnmatchedPredicted)
}

func TestAnalyzeCommand_AveragingFlag(t *testing.T) {
	args, outDir := analyzeFixture(t)

	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append(args, "--averaging", "macro"))

	require.NoError(t, cmd.Execute())

	var stats statisticsOutput
	data, err := os.ReadFile(filepath.Join(outDir, "statistics.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &stats))

	assert.Equal(t, "macro", string(stats.Statistics.Averaging))
}

func TestAnalyzeCommand_NoOutputOnInvalidInput(t *testing.T) {
	args, outDir := analyzeFixture(t)

	// Corrupt the prediction timeline with an unsupported type.
	require.NoError(t, os.WriteFile(args[2], []byte(`[
		{"text": "Paris", "position": 5, "entity_type": "LOCATION"}
	]`), 0o644))

	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	require.Error(t, cmd.Execute())

	_, err := os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyzeCommand_EmptyTranscriptFails(t *testing.T) {
	args, outDir := analyzeFixture(t)
	require.NoError(t, os.WriteFile(args[3], []byte("   "), 0o644))

	cmd := NewAnalyzeCommand(newTestDeps(t, &fakeRecognizer{}))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	require.Error(t, cmd.Execute())

	_, err := os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}
