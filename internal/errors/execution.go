package errors

import (
	"fmt"
	"strings"
)

// ExecutionError is a ledger-side execution failure that carries the
// program logs emitted before the failure. It is what preflight checks and
// simulations return, before any program-specific resolution.
type ExecutionError struct {
	// Message is the node's error message.
	Message string

	// Logs are the program log lines, in emission order.
	Logs []string

	// Err is the raw transaction error value reported by the node.
	Err any

	// UnitsConsumed is the compute budget used, when reported.
	UnitsConsumed *uint64

	// Cause is the transport error the failure was extracted from.
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("%v", e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrCodeSimulationFailure, msg)
}

// Unwrap returns the transport error the failure was extracted from.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSimulationFailure.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == ErrCodeSimulationFailure
}

// LogLines returns the attached program logs.
func (e *ExecutionError) LogLines() []string {
	return e.Logs
}

// HasLogs reports whether any logs are attached.
func (e *ExecutionError) HasLogs() bool {
	return len(e.Logs) > 0
}

// String renders the logs on separate lines, for diagnostics.
func (e *ExecutionError) String() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, l := range e.Logs {
		b.WriteString("\n  ")
		b.WriteString(l)
	}
	return b.String()
}

// WithLogs is implemented by errors that carry program logs.
type WithLogs interface {
	error
	LogLines() []string
}

// LogsOf returns the program logs attached to err, if any error in its
// chain carries them.
func LogsOf(err error) ([]string, bool) {
	var wl WithLogs
	if !As(err, &wl) {
		return nil, false
	}
	logs := wl.LogLines()
	return logs, len(logs) > 0
}
