package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrSpawn             = errors.New("worker could not be started")
	ErrWorkerFailure     = errors.New("worker exited with failure")
	ErrOutputDecode      = errors.New("worker output is not valid text")
	ErrCancelled         = errors.New("worker invocation cancelled")
	ErrWait              = errors.New("waiting for worker failed")
	ErrNotFound          = errors.New("invocation not found")
	ErrAmbiguousID       = errors.New("invocation ID prefix is ambiguous")
	ErrConfigExists      = errors.New("config file already exists")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// WorkerFailurePrefix starts the message of every non-zero worker exit.
const WorkerFailurePrefix = "Worker script failed: "

// UnknownWorkerError replaces worker stderr that is not valid text.
const UnknownWorkerError = "Unknown worker error"

// ErrorKind classifies an invocation failure.
type ErrorKind string

// Error kinds.
const (
	KindSpawn         ErrorKind = "spawn"
	KindWorkerFailure ErrorKind = "worker_failure"
	KindOutputDecode  ErrorKind = "output_decode"
	KindCancelled     ErrorKind = "cancelled"
	KindWait          ErrorKind = "wait"
)

var kindSentinels = map[ErrorKind]error{
	KindSpawn:         ErrSpawn,
	KindWorkerFailure: ErrWorkerFailure,
	KindOutputDecode:  ErrOutputDecode,
	KindCancelled:     ErrCancelled,
	KindWait:          ErrWait,
}

// InvocationError is the failure side of an InvocationResult.
// Error returns Message unchanged so callers can surface it verbatim.
type InvocationError struct {
	Cause    error // Underlying platform or decode error (may be nil)
	Kind     ErrorKind
	Message  string
	ExitCode int
}

// NewInvocationError creates an InvocationError.
func NewInvocationError(kind ErrorKind, message string, exitCode int, cause error) *InvocationError {
	return &InvocationError{
		Kind:     kind,
		Message:  message,
		ExitCode: exitCode,
		Cause:    cause,
	}
}

func (e *InvocationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Is matches the sentinel for the error kind.
func (e *InvocationError) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// Unwrap returns the underlying cause.
func (e *InvocationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// KindOf returns the ErrorKind of err, or "" when err is nil or unclassified.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// WorkerFailureMessage formats the message for a non-zero worker exit.
func WorkerFailureMessage(stderr string) string {
	return fmt.Sprintf("%s%s", WorkerFailurePrefix, stderr)
}
