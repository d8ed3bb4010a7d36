package trees

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Service that is not an infrastructure
// failure matches one of them with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// ValidationError reports a request the service refuses to apply.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NotFoundError reports a missing tree or branch. Cause is the store
// sentinel (store.ErrTreeNotFound or store.ErrBranchNotFound).
type NotFoundError struct {
	Entity string // "tree" or "branch"
	ID     int64
	TreeID int64 // set when a branch was looked up inside a tree
	Cause  error
}

func (e *NotFoundError) Error() string {
	if e.TreeID != 0 {
		return fmt.Sprintf("%s %d not found in tree %d", e.Entity, e.ID, e.TreeID)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Cause}
}
