// Package gemini is the Gemini CLI provider.
package gemini

import (
	"context"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
	"github.com/dmora/agentexec/internal/jsonutil"
	"github.com/dmora/agentexec/locate"
)

const (
	defaultCommand = "gemini"

	// EnvPath overrides binary resolution when it names an existing file.
	EnvPath = "GEMINI_CLI_PATH"
)

var wellKnownPaths = []string{
	"~/.local/bin/gemini",
	"/usr/local/bin/gemini",
	"/opt/homebrew/bin/gemini",
	"~/.npm-global/bin/gemini",
}

// Provider is the Gemini CLI provider. Unlike claude and codex, the
// CLI emits one JSON document on stdout rather than a line stream; the
// document parser recovers the response after the process exits.
type Provider struct {
	command string
	root    string // chats root override; "" = ~/.gemini/tmp
	engine  *engine.Engine
}

// Compile-time interface satisfaction checks.
var (
	_ agentexec.Provider      = (*Provider)(nil)
	_ agentexec.SessionLister = (*Provider)(nil)
	_ engine.Backend          = (*Provider)(nil)
	_ engine.DocumentParser   = (*Provider)(nil)
)

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithCommand overrides the command name looked up on PATH.
// Empty values are ignored; the default is "gemini".
func WithCommand(cmd string) Option {
	return func(p *Provider) {
		if cmd != "" {
			p.command = cmd
		}
	}
}

// WithRoot overrides the chat storage root directory.
func WithRoot(dir string) Option {
	return func(p *Provider) {
		if dir != "" {
			p.root = dir
		}
	}
}

// New creates a Gemini provider.
func New(opts ...Option) *Provider {
	p := &Provider{command: defaultCommand}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = engine.New(p)
	return p
}

// Tool returns agentexec.ToolGemini.
func (p *Provider) Tool() agentexec.Tool { return agentexec.ToolGemini }

// Locator describes how to find the gemini binary.
func (p *Provider) Locator() locate.Spec {
	return locate.Spec{
		EnvVar:    EnvPath,
		Command:   p.command,
		WellKnown: wellKnownPaths,
	}
}

// Resolve returns the gemini binary path, or agentexec.ErrUnavailable.
func (p *Provider) Resolve() (string, error) { return p.engine.Resolve() }

// Execute runs one prompt through the gemini CLI.
func (p *Provider) Execute(ctx context.Context, opts agentexec.ExecuteOptions) (*agentexec.ExecuteResult, error) {
	return p.engine.Execute(ctx, opts)
}

// Args builds the gemini argv for one execution.
// The CLI has no resume, system-prompt, or tool-filter surface, so
// SessionID, Continue, SystemPrompt, and the tool lists are ignored.
func (p *Provider) Args(opts agentexec.ExecuteOptions) []string {
	args := []string{"-o", "json"}

	if m := opts.Model; m != "" && !jsonutil.ContainsNull(m) {
		args = append(args, "-m", m)
	}

	if flag, ok := approvalFlag(opts.PermissionMode); ok {
		args = append(args, "--approval-mode", flag)
	}

	if opts.Prompt != "" && !jsonutil.ContainsNull(opts.Prompt) {
		args = append(args, "-p", opts.Prompt)
	}
	return args
}

// approvalFlag maps a PermissionMode to the gemini --approval-mode
// value. Plan has no gemini equivalent and maps to the interactive
// default; the default mode omits the flag.
func approvalFlag(mode agentexec.PermissionMode) (string, bool) {
	switch mode {
	case agentexec.PermissionPlan:
		return "default", true
	case agentexec.PermissionAcceptEdits:
		return "auto_edit", true
	case agentexec.PermissionBypass:
		return "yolo", true
	}
	return "", false
}
