package domain

import (
	"errors"
	"fmt"
)

// Input errors abort a compute run before any derived row is produced.
// The pipeline is all-or-nothing: there is no partial output.
var (
	// ErrEmptyCriteria indicates the snapshot carries no criteria.
	ErrEmptyCriteria = errors.New("criteria list is empty")

	// ErrNoEvaluations indicates the snapshot carries no submitted evaluations.
	ErrNoEvaluations = errors.New("no submitted evaluations")

	// ErrUnknownMethod indicates an unsupported normalization method.
	ErrUnknownMethod = errors.New("unknown normalization method")

	// ErrUnknownSelectionMode indicates an unsupported selection mode.
	ErrUnknownSelectionMode = errors.New("unknown selection mode")

	// ErrInvalidConfiguration indicates configuration that failed
	// structural validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoJudges indicates a selection run with no assigned judges.
	ErrNoJudges = errors.New("no judges assigned to round")
)

// ValidationError collects every violation found while validating raw input,
// so callers can surface the complete list of problems instead of fixing them
// one resubmission at a time.
type ValidationError struct {
	// Entity names what failed validation, e.g. "evaluation j1/teamA".
	Entity string

	// Violations holds one message per independent problem found.
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("validation failed for %s: %s", e.Entity, e.Violations[0])
	}
	return fmt.Sprintf("validation failed for %s: %d violations: %v",
		e.Entity, len(e.Violations), e.Violations)
}

// Add records another violation.
func (e *ValidationError) Add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// HasViolations reports whether any violation was recorded.
func (e *ValidationError) HasViolations() bool { return len(e.Violations) > 0 }

// NewValidationError creates an empty ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}
