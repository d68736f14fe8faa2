package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the core failure classes. Typed errors below wrap
// them so callers can test with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrCapacity     = errors.New("capacity exceeded")
	ErrPathNotFound = errors.New("no path found")
	ErrOracle       = errors.New("oracle unavailable")
)

// ValidationError reports a disallowed or unsafe operation.
type ValidationError struct {
	Op      string
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Op)
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(e.Reasons, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a missing resource, such as a context for a mode.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CapacityError reports a size limit being exceeded.
type CapacityError struct {
	What  string
	Limit int
	Got   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s exceeds limit (%d > %d)", e.What, e.Got, e.Limit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// PathNotFoundError reports that no route exists between two modes.
type PathNotFoundError struct {
	From ModeType
	To   ModeType
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("no transition path from %s to %s", e.From, e.To)
}

func (e *PathNotFoundError) Unwrap() error { return ErrPathNotFound }
