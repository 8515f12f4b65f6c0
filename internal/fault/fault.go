// Package fault defines the error taxonomy shared by the token manager, the
// sheet reader, the record transformer and the persistence layer.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when no credential set has been issued yet.
	ErrNotAuthenticated = errors.New("fault: not authenticated")
	// ErrPreconditionFailed is returned when credentials or sheet coordinates are
	// missing before a read is attempted.
	ErrPreconditionFailed = errors.New("fault: precondition failed")
	// ErrInvalidInput is returned when an upstream response violates the
	// rows-of-cells shape.
	ErrInvalidInput = errors.New("fault: invalid input")
	// ErrUpstream matches any *UpstreamError via errors.Is.
	ErrUpstream = errors.New("fault: upstream error")
	// ErrPersistence matches any *PersistenceError via errors.Is.
	ErrPersistence = errors.New("fault: persistence error")
)

// UpstreamError reports that the OAuth or spreadsheet provider rejected a call
// or could not be reached. The provider's error is kept as Cause.
type UpstreamError struct {
	Op    string
	Cause error
}

func (e *UpstreamError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("upstream %s failed", e.Op)
	}
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Cause)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrUpstream) match without losing the cause chain.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Upstream wraps cause as an *UpstreamError for the named operation.
func Upstream(op string, cause error) error {
	return &UpstreamError{Op: op, Cause: cause}
}

// PersistenceError reports a failed load or save of the persisted state. It is
// logged, never surfaced to HTTP callers.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps cause as a *PersistenceError.
func Persistence(op string, cause error) error {
	return &PersistenceError{Op: op, Cause: cause}
}

// Kind maps err to a stable logging label.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "unexpected"
}

// Cause returns the description of the innermost provider error carried by
// err, or err's own message when there is none.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	var up *UpstreamError
	if errors.As(err, &up) && up.Cause != nil {
		return up.Cause.Error()
	}
	return err.Error()
}
