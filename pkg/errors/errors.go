// Package errors provides common domain error types for the entitime CLI.
//
// This package defines sentinel errors for conditions like "invalid input"
// or "unsupported entity type" that can be used across all packages. Using
// typed errors enables consistent error handling patterns with errors.Is()
// checks.
//
// Usage:
//
//	import eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
//
//	// Return a domain error with context
//	return fmt.Errorf("mention %d: %w", i, eterrors.ErrInvalidInput)
//
//	// Check for domain errors
//	if eterrors.IsInvalidInput(err) {
//	    // handle invalid input case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrInvalidInput indicates malformed or missing required fields in a
	// timeline or transcript.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an entity type outside the configured set.
	ErrUnsupportedType = errors.New("unsupported entity type")

	// ErrEmptyInput indicates a zero-length transcript or timeline where a
	// non-empty one is required.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnauthorized indicates the extraction API rejected the API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the extraction API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoCredentials indicates no API key has been stored.
	ErrNoCredentials = errors.New("no credentials stored")
)

// IsInvalidInput reports whether any error in err's chain is ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnsupportedType reports whether any error in err's chain is ErrUnsupportedType.
func IsUnsupportedType(err error) bool {
	return errors.Is(err, ErrUnsupportedType)
}

// IsEmptyInput reports whether any error in err's chain is ErrEmptyInput.
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited reports whether any error in err's chain is ErrRateLimited.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsNoCredentials reports whether any error in err's chain is ErrNoCredentials.
func IsNoCredentials(err error) bool {
	return errors.Is(err, ErrNoCredentials)
}
