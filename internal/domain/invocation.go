package domain

import "time"

// InvocationRequest describes one run of an external worker.
// The request is a value: it is built per call and never stored.
type InvocationRequest struct {
	ID         string   // Correlates log entries (optional)
	Executable string   // Program to run (absolute path, relative path, or PATH lookup)
	Entry      string   // Entry-point argument, usually the worker script (omitted when empty)
	Dir        string   // Working directory (empty = inherit)
	Args       []string // Positional arguments passed after Entry, in order
	Env        []string // Extra KEY=VALUE entries appended to the host environment
}

// Argv returns the arguments passed to the executable, without the program name.
// Entry comes first when set, followed by Args in order.
func (r InvocationRequest) Argv() []string {
	argv := make([]string, 0, len(r.Args)+1)
	if r.Entry != "" {
		argv = append(argv, r.Entry)
	}
	return append(argv, r.Args...)
}

// DiagnosticFunc receives each standard-error line of a running worker.
type DiagnosticFunc func(line string)

// InvocationResult is the outcome of one invocation.
// Exactly one of Output (on success) or Err (on failure) is meaningful.
type InvocationResult struct {
	Err      error
	Output   string
	State    InvocationState
	Duration time.Duration
	ExitCode int // -1 when no process exit status exists
}

// Succeeded reports whether the invocation produced output.
func (r InvocationResult) Succeeded() bool {
	return r.Err == nil
}

// Message returns the failure message, or "" on success.
func (r InvocationResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Kind returns the error kind, or "" on success.
func (r InvocationResult) Kind() ErrorKind {
	return KindOf(r.Err)
}
