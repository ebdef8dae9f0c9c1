package agentexec

import (
	"errors"
	"strconv"
)

// Sentinel errors for provider operations.
var (
	// ErrUnavailable indicates the provider binary could not be located.
	// This is the only error Execute returns; every runtime failure is
	// reported through ExecuteResult instead.
	ErrUnavailable = errors.New("agentexec: provider unavailable")

	// ErrTimeout indicates the subprocess outlived its deadline and was
	// terminated. Surfaced through ExecuteResult.Error, not returned.
	ErrTimeout = errors.New("agentexec: execution timed out")

	// ErrTerminated indicates the subprocess was terminated by
	// cancellation rather than exiting on its own.
	ErrTerminated = errors.New("agentexec: process terminated")
)

// ExitError represents a subprocess that exited with a non-zero status.
// Wraps the underlying error to preserve the error chain — consumers can
// errors.As to *exec.ExitError for OS-level detail (signal info, etc.).
//
// Code semantics: positive = exit status, negative (-1) = signal-killed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "agentexec: exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing
// *ExitError. Returns (0, false) if the chain has none.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
