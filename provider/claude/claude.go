// Package claude is the Claude Code CLI provider.
package claude

import (
	"context"
	"strings"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
	"github.com/dmora/agentexec/internal/jsonutil"
	"github.com/dmora/agentexec/locate"
)

const (
	defaultCommand = "claude"

	// EnvPath overrides binary resolution when it names an existing file.
	EnvPath = "CLAUDE_CLI_PATH"
)

// wellKnownPaths are tried after the env override and PATH lookup fail.
var wellKnownPaths = []string{
	"~/.claude/local/claude",
	"~/.local/bin/claude",
	"/usr/local/bin/claude",
	"/opt/homebrew/bin/claude",
	"~/.npm-global/bin/claude",
}

// Provider is the Claude Code CLI provider. One instance is safe for
// concurrent Execute calls — it holds no per-execution state.
type Provider struct {
	command string
	root    string // projects dir override for session loading; "" = ~/.claude/projects
	engine  *engine.Engine
}

// Compile-time interface satisfaction checks.
var (
	_ agentexec.Provider        = (*Provider)(nil)
	_ agentexec.SessionLister   = (*Provider)(nil)
	_ engine.Backend            = (*Provider)(nil)
	_ engine.SessionIDExtractor = (*Provider)(nil)
)

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithCommand overrides the command name looked up on PATH.
// Empty values are ignored; the default is "claude".
func WithCommand(cmd string) Option {
	return func(p *Provider) {
		if cmd != "" {
			p.command = cmd
		}
	}
}

// WithProjectsRoot overrides the transcript projects directory.
// Used by tests and non-standard installations.
func WithProjectsRoot(dir string) Option {
	return func(p *Provider) {
		if dir != "" {
			p.root = dir
		}
	}
}

// New creates a Claude Code provider.
func New(opts ...Option) *Provider {
	p := &Provider{command: defaultCommand}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = engine.New(p)
	return p
}

// Tool returns agentexec.ToolClaude.
func (p *Provider) Tool() agentexec.Tool { return agentexec.ToolClaude }

// Locator describes how to find the claude binary.
func (p *Provider) Locator() locate.Spec {
	return locate.Spec{
		EnvVar:    EnvPath,
		Command:   p.command,
		WellKnown: wellKnownPaths,
	}
}

// Resolve returns the claude binary path, or agentexec.ErrUnavailable.
func (p *Provider) Resolve() (string, error) { return p.engine.Resolve() }

// Execute runs one prompt through the claude CLI.
func (p *Provider) Execute(ctx context.Context, opts agentexec.ExecuteOptions) (*agentexec.ExecuteResult, error) {
	return p.engine.Execute(ctx, opts)
}

// Args builds the claude argv for one execution.
// The CLI rejects --output-format stream-json in print mode unless
// --verbose is also present, so it is part of the base flags.
// The prompt is always the last positional argument; null-byte-containing
// values are silently skipped (Args must not fail).
func (p *Provider) Args(opts agentexec.ExecuteOptions) []string {
	args := []string{"-p", "--output-format", "stream-json", "--verbose"}

	if m := opts.Model; m != "" && !jsonutil.ContainsNull(m) {
		args = append(args, "--model", m)
	}

	if flag, ok := permissionFlag(opts.PermissionMode); ok {
		args = append(args, "--permission-mode", flag)
	}

	if sp := opts.SystemPrompt; sp != "" && !jsonutil.ContainsNull(sp) {
		args = append(args, "--system-prompt", sp)
	}

	switch {
	case opts.SessionID != "" && !jsonutil.ContainsNull(opts.SessionID):
		args = append(args, "--resume", opts.SessionID)
	case opts.Continue:
		args = append(args, "--continue")
	}

	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if len(opts.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(opts.DisallowedTools, ","))
	}

	if opts.Prompt != "" && !jsonutil.ContainsNull(opts.Prompt) {
		args = append(args, opts.Prompt)
	}
	return args
}

// permissionFlag maps a PermissionMode to the claude --permission-mode
// value. The default mode omits the flag entirely.
func permissionFlag(mode agentexec.PermissionMode) (string, bool) {
	switch mode {
	case agentexec.PermissionPlan:
		return "plan", true
	case agentexec.PermissionAcceptEdits:
		return "acceptEdits", true
	case agentexec.PermissionBypass:
		return "bypassPermissions", true
	}
	return "", false
}
