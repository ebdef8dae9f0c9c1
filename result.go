package agentexec

import (
	"encoding/json"
	"time"
)

// UnknownSessionID is reported when no session-started record was
// observed and the caller did not resume an existing session.
const UnknownSessionID = "unknown"

// ExecuteResult is the immutable outcome of one provider invocation.
//
// A subprocess failure is not an error: Success is false, Error carries
// the detail, and Messages/Text hold whatever partial progress was
// parsed before the failure.
type ExecuteResult struct {
	// Success is true iff the subprocess exited with code 0.
	Success bool `json:"success"`

	// ExitCode is the subprocess exit code. -1 when the process was
	// killed (timeout, cancellation) or never ran.
	ExitCode int `json:"exit_code"`

	// SessionID is derived from the provider's session-started record,
	// or UnknownSessionID when none was observed.
	SessionID string `json:"session_id"`

	// Messages are the parsed unified messages, in emission order.
	Messages []Message `json:"messages"`

	// Events are the raw provider event lines, in arrival order.
	Events []json.RawMessage `json:"events,omitempty"`

	// Text is the newline-joined text content of all assistant messages.
	Text string `json:"text"`

	// Data is the extracted structured value when JSON mode was
	// requested and extraction succeeded; otherwise it is the raw Text.
	Data any `json:"data,omitempty"`

	// Error is the failure detail (stderr, or a generic message when
	// stderr was empty). Empty on success.
	Error string `json:"error,omitempty"`

	// Stderr is the accumulated standard error output.
	Stderr string `json:"stderr,omitempty"`

	// Duration is the wall-clock subprocess lifetime.
	Duration time.Duration `json:"duration"`
}
