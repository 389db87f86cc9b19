package domain

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
)

var (
	uidPattern   = regexp.MustCompile(`^[a-zA-Z0-9._:-]{1,128}$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
)

// ValidateUID checks booking uids, operation ids and other opaque
// identifiers supplied by producers.
func ValidateUID(field, value string) error {
	if value == "" {
		return NewValidationError(field, "is required")
	}
	if !uidPattern.MatchString(value) {
		return NewValidationError(field, "contains invalid characters")
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}
