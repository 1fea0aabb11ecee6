// Package extraction turns raw transcripts into entity dictionaries and
// position-keyed timelines using an entity-recognition backend.
package extraction

import (
	"context"
	"fmt"
	"strings"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
	"github.com/otherjamesbrown/entitime/pkg/logging"
	"github.com/otherjamesbrown/entitime/pkg/privateai"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// contextRadius is how many words of surrounding context are captured on
// each side of a mention.
const contextRadius = 10

// EntityRecognizer is the extraction backend. *privateai.Client satisfies
// it; tests substitute a fake.
type EntityRecognizer interface {
	ProcessText(ctx context.Context, text string, types []timeline.EntityType) ([]privateai.DetectedEntity, error)
}

// Extractor runs the extraction pipeline: recognize entities, group them by
// entity key, normalize positions to the 0-100 scale, and capture context
// windows.
type Extractor struct {
	recognizer EntityRecognizer
	logger     logging.Logger
}

// New creates an Extractor.
func New(recognizer EntityRecognizer, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{recognizer: recognizer, logger: logger}
}

// Extract detects entities of the given types in transcript and groups them
// into an entity dictionary keyed by the API's entity marker.
func (e *Extractor) Extract(ctx context.Context, transcript string, types timeline.TypeSet) (timeline.EntityDict, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript: %w", eterrors.ErrEmptyInput)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("entity type set: %w", eterrors.ErrEmptyInput)
	}

	e.logger.Info("requesting entity detection", logging.F("transcript_chars", len(transcript)), logging.F("types", len(types)))

	detected, err := e.recognizer.ProcessText(ctx, transcript, types.Types())
	if err != nil {
		return nil, fmt.Errorf("detecting entities: %w", err)
	}

	words := strings.Fields(transcript)
	dict := make(timeline.EntityDict)

	for _, entity := range detected {
		if entity.ProcessedText == "" || entity.BestLabel == "" {
			e.logger.Warn("skipping entity with missing key or label", logging.F("text", entity.Text))
			continue
		}

		entry, ok := dict[entity.ProcessedText]
		if !ok {
			entry = timeline.Entity{
				Text: entity.Text,
				Type: timeline.EntityType(entity.BestLabel),
			}
		}

		if entity.Location.StartIndex == nil || entity.Location.EndIndex == nil {
			e.logger.Warn("skipping occurrence with missing position", logging.F("text", entity.Text))
			dict[entity.ProcessedText] = entry
			continue
		}

		start := *entity.Location.StartIndex
		if start < 0 || start > len(transcript) {
			return nil, fmt.Errorf("entity %q: start index %d outside transcript: %w", entity.Text, start, eterrors.ErrInvalidInput)
		}

		entry.Positions = append(entry.Positions, normalizedPosition(start, len(transcript)))
		entry.Sentences = append(entry.Sentences, contextWindow(transcript, words, start))
		dict[entity.ProcessedText] = entry
	}

	e.logger.Info("entity detection complete", logging.F("entities", len(dict)))
	return dict, nil
}

// Timeline flattens an entity dictionary into a position-sorted timeline.
func (e *Extractor) Timeline(dict timeline.EntityDict) timeline.Timeline {
	return dict.Flatten()
}

// normalizedPosition maps a character offset onto the 0-100 timeline scale.
func normalizedPosition(start, textLength int) int {
	if textLength == 0 {
		return 0
	}
	return int(float64(start) / float64(textLength) * 100)
}

// contextWindow returns the ±contextRadius words around the word containing
// character offset start.
func contextWindow(transcript string, words []string, start int) string {
	wordIndex := len(strings.Fields(transcript[:start]))

	lo := wordIndex - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := wordIndex + contextRadius
	if hi > len(words) {
		hi = len(words)
	}

	return strings.Join(words[lo:hi], " ")
}
