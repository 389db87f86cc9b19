package domain

import (
	"fmt"
	"strings"
)

// ValidationError rejects a write before anything is stored. Errors carries
// machine-readable details from JSON schema validation when present.
type ValidationError struct {
	Field  string
	Reason string
	Errors []string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	msg := "validation failed"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return msg
}

// UnsupportedVersionError is returned when a stored payload version has no
// migration path to the current shape of its action.
type UnsupportedVersionError struct {
	Action  Action
	Version int
	Current int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported %s payload version %d (current %d)", e.Action, e.Version, e.Current)
}
