// Package codex is the OpenAI Codex CLI provider.
package codex

import (
	"context"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
	"github.com/dmora/agentexec/internal/jsonutil"
	"github.com/dmora/agentexec/locate"
)

const (
	defaultCommand = "codex"

	// EnvPath overrides binary resolution when it names an existing file.
	EnvPath = "CODEX_CLI_PATH"
)

var wellKnownPaths = []string{
	"~/.local/bin/codex",
	"/usr/local/bin/codex",
	"/opt/homebrew/bin/codex",
	"~/.npm-global/bin/codex",
}

// Provider is the Codex CLI provider. One instance is safe for
// concurrent Execute calls — it holds no per-execution state.
type Provider struct {
	command string
	root    string // sessions dir override; "" = ~/.codex/sessions
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
// Empty values are ignored; the default is "codex".
func WithCommand(cmd string) Option {
	return func(p *Provider) {
		if cmd != "" {
			p.command = cmd
		}
	}
}

// WithSessionsRoot overrides the rollout transcript directory.
func WithSessionsRoot(dir string) Option {
	return func(p *Provider) {
		if dir != "" {
			p.root = dir
		}
	}
}

// New creates a Codex provider.
func New(opts ...Option) *Provider {
	p := &Provider{command: defaultCommand}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = engine.New(p)
	return p
}

// Tool returns agentexec.ToolCodex.
func (p *Provider) Tool() agentexec.Tool { return agentexec.ToolCodex }

// Locator describes how to find the codex binary.
func (p *Provider) Locator() locate.Spec {
	return locate.Spec{
		EnvVar:    EnvPath,
		Command:   p.command,
		WellKnown: wellKnownPaths,
	}
}

// Resolve returns the codex binary path, or agentexec.ErrUnavailable.
func (p *Provider) Resolve() (string, error) { return p.engine.Resolve() }

// Execute runs one prompt through the codex CLI.
func (p *Provider) Execute(ctx context.Context, opts agentexec.ExecuteOptions) (*agentexec.ExecuteResult, error) {
	return p.engine.Execute(ctx, opts)
}

// Args builds the codex argv for one execution.
//
//	codex exec --json [flags] -- <prompt>
//	codex exec resume --json [flags] -- <thread_id> <prompt>
//
// The --json flag must follow the exec subcommand; the POSIX --
// separator prevents prompt content from being parsed as flags.
// Tool allow/deny lists have no codex surface and are ignored.
func (p *Provider) Args(opts agentexec.ExecuteOptions) []string {
	args := []string{"exec"}

	resuming := opts.SessionID != "" && !jsonutil.ContainsNull(opts.SessionID)
	if resuming || opts.Continue {
		args = append(args, "resume")
	}
	args = append(args, "--json")
	if opts.Continue && !resuming {
		args = append(args, "--last")
	}

	if m := opts.Model; m != "" && !jsonutil.ContainsNull(m) {
		args = append(args, "-m", m)
	}

	args = append(args, sandboxArgs(opts.PermissionMode)...)

	for _, img := range opts.Images {
		if img != "" && !jsonutil.ContainsNull(img) {
			args = append(args, "-i", img)
		}
	}

	args = append(args, "--")
	if resuming {
		args = append(args, opts.SessionID)
	}
	if opts.Prompt != "" && !jsonutil.ContainsNull(opts.Prompt) {
		args = append(args, opts.Prompt)
	}
	return args
}

// sandboxArgs maps the provider-agnostic permission mode onto codex's
// sandbox vocabulary. The default mode adds nothing.
func sandboxArgs(mode agentexec.PermissionMode) []string {
	switch mode {
	case agentexec.PermissionPlan:
		return []string{"--sandbox", "read-only"}
	case agentexec.PermissionAcceptEdits:
		return []string{"--sandbox", "workspace-write"}
	case agentexec.PermissionBypass:
		return []string{"--sandbox", "danger-full-access"}
	}
	return nil
}
