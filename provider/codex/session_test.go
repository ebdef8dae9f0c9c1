package codex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/agentexec"
)

func writeRollout(t *testing.T, root, datePath, stamp, sessionID string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(root, datePath)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "rollout-"+stamp+"-"+sessionID+".jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sessA = "0199a213-81ef-7632-8010-a82ec1b5b8a1"
const sessB = "0199a213-81ef-7632-8010-a82ec1b5b8b2"

func TestLoadSession_FindsByFilenameSuffix(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, "2026/01/15", "2026-01-15T10-30-00", sessA,
		`{"type":"response_item","timestamp":"2026-01-15T10:30:01Z","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"q"}]}}`,
		`{"type":"response_item","timestamp":"2026-01-15T10:30:05Z","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"a"}]}}`,
		`{"type":"session_meta","payload":{"id":"`+sessA+`"}}`,
	)
	writeRollout(t, root, "2026/01/14", "2026-01-14T09-00-00", sessB,
		`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"other"}]}}`,
	)

	p := New(WithSessionsRoot(root))
	msgs, err := p.LoadSession(sessA, "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "q", msgs[0].Text())
	assert.Equal(t, "a", msgs[1].Text())
	assert.Equal(t, agentexec.ToolCodex, msgs[0].Tool)
}

func TestLoadSession_UnknownIDYieldsNil(t *testing.T) {
	p := New(WithSessionsRoot(t.TempDir()))
	msgs, err := p.LoadSession(sessA, "")
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestLoadSession_EmptyIDYieldsNil(t *testing.T) {
	p := New(WithSessionsRoot(t.TempDir()))
	msgs, err := p.LoadSession("", "")
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestListSessions(t *testing.T) {
	root := t.TempDir()
	oldPath := writeRollout(t, root, "2026/01/14", "2026-01-14T09-00-00", sessB,
		`{"type":"session_meta","payload":{"id":"`+sessB+`"}}`)
	writeRollout(t, root, "2026/01/15", "2026-01-15T10-30-00", sessA,
		`{"type":"session_meta","payload":{"id":"`+sessA+`"}}`)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	p := New(WithSessionsRoot(root))
	sessions, err := p.ListSessions("")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, sessA, sessions[0].ID)
	assert.Equal(t, sessB, sessions[1].ID)
}

func TestListSessions_IgnoresNonRolloutFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.jsonl"), []byte("{}\n"), 0o644))

	p := New(WithSessionsRoot(root))
	sessions, err := p.ListSessions("")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
