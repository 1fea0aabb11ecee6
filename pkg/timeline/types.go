// Package timeline defines the entity mention data model shared by the
// extraction and analysis pipelines, plus JSON loading and validation.
//
// A timeline is an ordered sequence of entity mentions for one transcript,
// keyed by normalized position (0-100) within the transcript. Two timelines
// exist per analysis run: ground truth and prediction.
package timeline

import (
	"fmt"
	"sort"
	"strings"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
)

// EntityType represents the type of a named entity.
type EntityType string

// Default entity types recognized by the extraction API.
const (
	EntityTypeName         EntityType = "NAME"
	EntityTypeOrganization EntityType = "ORGANIZATION"
	EntityTypeLocation     EntityType = "LOCATION"
	EntityTypeOccupation   EntityType = "OCCUPATION"
)

// DefaultTypeSet returns the default set of recognized entity types.
func DefaultTypeSet() TypeSet {
	return NewTypeSet(EntityTypeName, EntityTypeOrganization)
}

// TypeSet is the configured set of recognized entity types.
type TypeSet map[EntityType]struct{}

// NewTypeSet builds a TypeSet from the given types.
func NewTypeSet(types ...EntityType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// ParseTypeSet builds a TypeSet from string values (e.g. CLI flags).
// Values are upper-cased; empty values are rejected.
func ParseTypeSet(values []string) (TypeSet, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("entity type set is empty: %w", eterrors.ErrEmptyInput)
	}
	s := make(TypeSet, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			return nil, fmt.Errorf("blank entity type: %w", eterrors.ErrInvalidInput)
		}
		s[EntityType(v)] = struct{}{}
	}
	return s, nil
}

// Contains reports whether t is in the set.
func (s TypeSet) Contains(t EntityType) bool {
	_, ok := s[t]
	return ok
}

// Types returns the set members in sorted order for deterministic iteration.
func (s TypeSet) Types() []EntityType {
	out := make([]EntityType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Mention is a typed, positioned span of text identified as a named entity.
// Immutable once extracted.
type Mention struct {
	// Text is the surface form of the entity as it appears in the transcript.
	Text string `json:"text"`

	// Position is the normalized position (0-100) of the mention within its
	// transcript.
	Position int `json:"position"`

	// Type is the entity type (e.g. NAME, ORGANIZATION).
	Type EntityType `json:"entity_type"`

	// EntityKey is the extraction API's marker for this entity (all
	// occurrences of one entity share a key).
	EntityKey string `json:"entity_key,omitempty"`

	// Sentence is the surrounding context window (roughly ±10 words).
	Sentence string `json:"sentence,omitempty"`
}

// Timeline is an ordered collection of entity mentions for one transcript.
type Timeline []Mention

// Sort orders the timeline by position, then by original text for
// deterministic output when positions collide.
func (tl Timeline) Sort() {
	sort.SliceStable(tl, func(i, j int) bool {
		if tl[i].Position != tl[j].Position {
			return tl[i].Position < tl[j].Position
		}
		return tl[i].Text < tl[j].Text
	})
}

// ByType partitions the timeline into per-type sub-timelines, preserving
// order within each type.
func (tl Timeline) ByType() map[EntityType]Timeline {
	out := make(map[EntityType]Timeline)
	for _, m := range tl {
		out[m.Type] = append(out[m.Type], m)
	}
	return out
}

// Validate checks every mention against the configured type set. It returns
// an error naming the first offending mention; no scoring should proceed on
// a timeline that fails validation.
func (tl Timeline) Validate(types TypeSet) error {
	for i, m := range tl {
		if strings.TrimSpace(m.Text) == "" {
			return fmt.Errorf("mention %d: empty text: %w", i, eterrors.ErrInvalidInput)
		}
		if m.Position < 0 {
			return fmt.Errorf("mention %d (%q): negative position %d: %w", i, m.Text, m.Position, eterrors.ErrInvalidInput)
		}
		if !types.Contains(m.Type) {
			return fmt.Errorf("mention %d (%q): type %q: %w", i, m.Text, m.Type, eterrors.ErrUnsupportedType)
		}
	}
	return nil
}

// Entity is one entry of the extraction API's entity dictionary: a canonical
// text plus every position it occurs at and the context around each
// occurrence.
type Entity struct {
	Text      string     `json:"text"`
	Type      EntityType `json:"type"`
	Positions []int      `json:"positions"`
	Sentences []string   `json:"sentences"`
}

// EntityDict maps the API's processed-text marker (entity key) to its entity.
type EntityDict map[string]Entity

// Flatten converts the entity dictionary into a position-sorted timeline.
// Each (position, sentence) pair becomes one mention carrying the entity's
// canonical text and key.
func (d EntityDict) Flatten() Timeline {
	var tl Timeline
	for key, e := range d {
		for i, pos := range e.Positions {
			m := Mention{
				Text:      e.Text,
				Position:  pos,
				Type:      e.Type,
				EntityKey: key,
			}
			if i < len(e.Sentences) {
				m.Sentence = e.Sentences[i]
			}
			tl = append(tl, m)
		}
	}
	tl.Sort()
	return tl
}
