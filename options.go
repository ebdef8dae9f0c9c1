package agentexec

import (
	"encoding/json"
	"fmt"
	"time"
)

// PermissionMode is a provider-agnostic approval-level setting controlling
// how much autonomy a provider subprocess has to modify files or execute
// commands. Exactly one mode is active per execution; each provider maps
// it deterministically onto its own flag vocabulary.
//
// The "plan" mode is documented by providers as read-only, but its exact
// enforcement boundary is provider-defined. This layer passes the flag
// through; it does not verify the guarantee.
type PermissionMode string

const (
	// PermissionDefault uses the provider's default permission handling.
	// Providers omit their permission flag entirely for this mode.
	PermissionDefault PermissionMode = "default"

	// PermissionPlan asks the provider to behave read-only.
	PermissionPlan PermissionMode = "plan"

	// PermissionAcceptEdits auto-accepts file edit operations.
	PermissionAcceptEdits PermissionMode = "acceptEdits"

	// PermissionBypass bypasses all permission prompts.
	PermissionBypass PermissionMode = "bypassPermissions"
)

// Valid reports whether m is a recognized permission mode.
// The empty string is valid and treated as PermissionDefault.
func (m PermissionMode) Valid() bool {
	switch m {
	case "", PermissionDefault, PermissionPlan, PermissionAcceptEdits, PermissionBypass:
		return true
	}
	return false
}

// ValidatePermissionMode returns an error naming the valid modes when m
// is unrecognized.
func ValidatePermissionMode(m PermissionMode) error {
	if m.Valid() {
		return nil
	}
	return fmt.Errorf("agentexec: unknown permission mode %q; valid: default, plan, acceptEdits, bypassPermissions", m)
}

// ExecuteOptions configures one provider invocation. Created once per
// call by the caller and not mutated by the engine.
type ExecuteOptions struct {
	// Prompt is the user prompt for this turn.
	Prompt string

	// CWD is the working directory for the subprocess.
	// Empty means the current process working directory.
	CWD string

	// Model overrides the provider's default model.
	Model string

	// PermissionMode selects the approval level. Empty means default.
	PermissionMode PermissionMode

	// SessionID resumes a prior provider session. This is the only case
	// where the caller supplies a session id; otherwise the result's
	// session id is derived from the provider's own session-started record.
	SessionID string

	// Continue resumes the provider's most recent session, where the
	// provider supports it.
	Continue bool

	// SystemPrompt overrides the provider's system prompt, where supported.
	SystemPrompt string

	// AllowedTools and DisallowedTools are provider tool allow/deny lists.
	AllowedTools    []string
	DisallowedTools []string

	// Images are file paths attached to the turn, for providers with an
	// image argv surface.
	Images []string

	// JSON requests structured data: the result's Data field is run
	// through best-effort JSON extraction instead of raw text.
	JSON bool

	// Timeout bounds the subprocess lifetime. Zero means no timeout.
	// On expiry the process is terminated (SIGTERM, then SIGKILL after
	// a grace period) and the result reports failure.
	Timeout time.Duration

	// OnStdout and OnStderr receive raw output chunks as they arrive.
	OnStdout func(chunk []byte)
	OnStderr func(chunk []byte)

	// OnEvent receives each complete raw provider event line.
	OnEvent func(event json.RawMessage)

	// OnMessage receives each parsed message as it is emitted.
	OnMessage func(msg Message)
}
