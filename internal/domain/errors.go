package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	// ErrMalformed marks data that violates a record or position invariant.
	ErrMalformed = errors.New("malformed")
	// ErrInvalidZone marks a zone the caller should not have built.
	ErrInvalidZone = errors.New("invalid zone")
	// ErrNotConfigured is returned when an optional collaborator is missing.
	ErrNotConfigured = errors.New("not configured")
)
