package pipeline

import (
	"errors"
	"fmt"

	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/resilience"
)

// ParseError means the response text could not be decoded into the expected
// structure, even after normalization.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse response: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatError means the expected delimiter never appeared in the response.
type FormatError struct {
	Stage     string
	Delimiter string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: no %s found in response", e.Stage, e.Delimiter)
}

// ValidationError means the response decoded but is missing required
// fields or carries invalid values.
type ValidationError struct {
	Stage string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid response: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: invalid response field %q: %v", e.Stage, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransformError reports an augmentation branch that failed end to end.
type TransformError struct {
	Branch model.AugmentationType
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("augment %s: %v", e.Branch, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Regenerable reports whether a stage call is worth repeating: the model
// produced unusable output, or the backend failed transiently.
func Regenerable(err error) bool {
	var (
		parseErr  *ParseError
		formatErr *FormatError
		validErr  *ValidationError
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &formatErr), errors.As(err, &validErr):
		return true
	default:
		return resilience.IsTransient(err)
	}
}
