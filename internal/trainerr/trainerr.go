// Package trainerr defines the error taxonomy of the training engine.
// Business-rule violations and validation failures carry a Kind the caller
// can branch on; Conflict and Busy are the only kinds safe to retry.
package trainerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// NotFound covers both "does not exist" and "not owned by the caller"
	// so existence of other users' data never leaks.
	NotFound Kind = iota + 1
	SessionNotActive
	InvalidSteps
	InvalidQuantity
	InvalidBars
	InsufficientCash
	InsufficientHoldings
	InvalidRiskRule
	// DataIntegrity means expected seed data (a candle, a position row) is
	// missing. Always fatal to the request, never retried.
	DataIntegrity
	// Conflict is optimistic-lock contention; the whole operation can be
	// retried from the caller.
	Conflict
	// Busy is storage-level lock/deadlock contention, also retryable.
	Busy
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case SessionNotActive:
		return "session not active"
	case InvalidSteps:
		return "invalid steps"
	case InvalidQuantity:
		return "invalid quantity"
	case InvalidBars:
		return "invalid bars"
	case InsufficientCash:
		return "insufficient cash"
	case InsufficientHoldings:
		return "insufficient holdings"
	case InvalidRiskRule:
		return "invalid risk rule"
	case DataIntegrity:
		return "data integrity"
	case Conflict:
		return "concurrency conflict"
	case Busy:
		return "storage busy"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a new taxonomy error.
func E(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error while preserving it for
// errors.Is/As chains.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from anywhere in the wrap chain; 0 if none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the caller may safely retry the whole operation.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == Conflict || k == Busy
}
