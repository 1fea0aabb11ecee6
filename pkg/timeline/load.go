package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
)

// Load reads a timeline JSON file and validates it against the configured
// type set. The file must contain a JSON array of mentions in the shape
// written by the extract command.
func Load(path string, types TypeSet) (Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading timeline %s: %w", path, err)
	}

	var tl Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("parsing timeline %s: %v: %w", path, err, eterrors.ErrInvalidInput)
	}

	if err := tl.Validate(types); err != nil {
		return nil, fmt.Errorf("timeline %s: %w", path, err)
	}

	return tl, nil
}

// LoadTranscript reads a plain-text transcript file. The transcript must be
// non-empty after trimming whitespace.
func LoadTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading transcript %s: %w", path, err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("transcript %s: %w", path, eterrors.ErrEmptyInput)
	}

	return text, nil
}
