package service

import "fmt"

// FailureKind classifies the expected, caller-visible failure outcomes.
// These are results to report, not faults to unwind from; the transport
// layer maps them to response codes.
type FailureKind int

const (
	KindNotFound FailureKind = iota
	KindUnauthorized
	KindInvalidState
)

// Failure is a domain-level failure carrying the user-facing message.
// Storage errors are never wrapped in a Failure; they propagate as plain
// errors and are the one class treated as a hard fault.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string { return f.Message }

func notFound(msg string) *Failure {
	return &Failure{Kind: KindNotFound, Message: msg}
}

func unauthorized(msg string) *Failure {
	return &Failure{Kind: KindUnauthorized, Message: msg}
}

func invalidState(format string, args ...any) *Failure {
	return &Failure{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}
