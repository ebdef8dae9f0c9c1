package agentexec

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Provider is one supported AI-assistant CLI: its subprocess execution
// surface and its on-disk transcript reader.
//
// Implementations live in provider/claude, provider/codex, and
// provider/gemini. Provider is an interface to enable wrapping with
// logging, metrics, or policy middleware.
type Provider interface {
	// Tool returns the provider's identifier.
	Tool() Tool

	// Execute runs one prompt through the provider CLI and returns the
	// normalized result. It returns an error only when the binary
	// cannot be located (ErrUnavailable); subprocess failures are
	// reported through the result.
	Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error)

	// LoadSession reads the provider's persisted transcript for
	// sessionID, oldest message first. projectPath scopes discovery for
	// providers that partition transcripts by project; empty means the
	// current working directory. Returns nil (never an error) when
	// nothing is found. Transcripts are re-read from disk on every
	// call — there is deliberately no cache.
	LoadSession(sessionID, projectPath string) ([]Message, error)

	// Resolve returns the filesystem path of the provider binary, or
	// ErrUnavailable when no resolution strategy succeeds.
	Resolve() (string, error)
}

// SessionLister is an optional Provider capability for enumerating
// persisted sessions. Resolved by type assertion, following the same
// capability-interface pattern as the engine's Backend extensions.
type SessionLister interface {
	// ListSessions enumerates persisted sessions for projectPath,
	// most recently updated first.
	ListSessions(projectPath string) ([]SessionInfo, error)
}

// SessionInfo summarizes one persisted session for listing.
type SessionInfo struct {
	ID        string    `json:"id"`
	Tool      Tool      `json:"tool"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry collects providers keyed by tool id.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	providers map[Tool]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Tool]Provider)}
}

// Register adds or replaces the provider for its tool id.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Tool()] = p
}

// Lookup returns the provider registered for t.
func (r *Registry) Lookup(t Tool) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[t]
	return p, ok
}

// Tools returns the registered tool ids in lexical order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.providers))
	for t := range r.providers {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i] < tools[j] })
	return tools
}
