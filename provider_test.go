package agentexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	tool Tool
}

func (s *stubProvider) Tool() Tool { return s.tool }

func (s *stubProvider) Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error) {
	return &ExecuteResult{Success: true}, nil
}

func (s *stubProvider) LoadSession(sessionID, projectPath string) ([]Message, error) {
	return nil, nil
}

func (s *stubProvider) Resolve() (string, error) { return "/bin/" + string(s.tool), nil }

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{tool: ToolClaude})

	p, ok := r.Lookup(ToolClaude)
	require.True(t, ok)
	assert.Equal(t, ToolClaude, p.Tool())

	_, ok = r.Lookup(ToolGemini)
	assert.False(t, ok)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := &stubProvider{tool: ToolCodex}
	second := &stubProvider{tool: ToolCodex}
	r.Register(first)
	r.Register(second)

	p, ok := r.Lookup(ToolCodex)
	require.True(t, ok)
	assert.Same(t, second, p)
}

func TestRegistryToolsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{tool: ToolGemini})
	r.Register(&stubProvider{tool: ToolClaude})
	r.Register(&stubProvider{tool: ToolCodex})

	assert.Equal(t, []Tool{ToolClaude, ToolCodex, ToolGemini}, r.Tools())
}
