package ai

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrParseFailure matches any *ParseError.
var ErrParseFailure = errors.New("model response could not be parsed")

// excerptLimit bounds how much of a bad response is kept for diagnostics.
const excerptLimit = 200

// ParseError reports a model response that did not have the expected structure.
type ParseError struct {
	// Reason describes the structural problem.
	Reason string
	// Excerpt is the start of the offending response.
	Excerpt string
	// Err is the underlying decoder error, if any.
	Err error
}

// NewParseError builds a ParseError, clipping raw to a short excerpt.
func NewParseError(raw, reason string, err error) *ParseError {
	return &ParseError{Reason: reason, Excerpt: Excerpt(raw), Err: err}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

// Excerpt returns at most the first 200 runes of s.
func Excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLimit {
		return s
	}
	n := 0
	for i := range s {
		if n == excerptLimit {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
