// Package errs defines the structured error taxonomy raised across the
// engine, in the spirit of the teacher's own typed-error idiom: a single
// concrete error type carrying a Kind enum instead of ad-hoc sentinel
// values or string matching.
package errs

import "fmt"

// Kind enumerates the error taxonomy.
type Kind string

const (
	Overflow            Kind = "Overflow"
	NegativeIndex       Kind = "NegativeIndex"
	MaxCyclesExceeded   Kind = "MaxCyclesExceeded"
	MaxMemoryExceeded   Kind = "MaxMemoryExceeded"
	NegativeSeqArgument Kind = "NegativeSeqArgument"
	Recursion           Kind = "Recursion"
	StackOverflow       Kind = "StackOverflow"
	UnbalancedLoops     Kind = "UnbalancedLoops"
	UnsupportedByIE     Kind = "UnsupportedByIE"
	UnsupportedByRanges Kind = "UnsupportedByRanges"
	Interrupted         Kind = "Interrupted"
	InvalidOperand      Kind = "InvalidOperand"
	Timeout             Kind = "Timeout"
)

// Error is the engine's structured error value: a Kind plus a
// human-readable message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err is an *Error of the given kind, following wrapped
// causes.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}
