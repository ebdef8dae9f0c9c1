package gemini

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/agentexec"
)

func writeChat(t *testing.T, root, projectPath, filename string, doc map[string]any) string {
	t.Helper()
	abs, err := filepath.Abs(projectPath)
	require.NoError(t, err)
	dir := filepath.Join(root, hashProjectPath(abs), "chats")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadSession_MatchesEmbeddedID(t *testing.T) {
	root := t.TempDir()
	project := "/home/dev/proj"
	writeChat(t, root, project, "session-1.json", map[string]any{
		"sessionId": "sess-1",
		"messages": []map[string]any{
			{"type": "user", "content": "q", "timestamp": "2026-01-15T10:00:00Z"},
			{"type": "gemini", "content": "a", "timestamp": "2026-01-15T10:00:05Z"},
		},
	})
	writeChat(t, root, project, "session-2.json", map[string]any{
		"sessionId": "sess-2",
		"messages": []map[string]any{
			{"type": "user", "content": "other"},
		},
	})

	p := New(WithRoot(root))
	msgs, err := p.LoadSession("sess-1", project)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "q", msgs[0].Text())
	assert.Equal(t, "a", msgs[1].Text())
	assert.Equal(t, agentexec.ToolGemini, msgs[0].Tool)
}

func TestLoadSession_FallsBackToLatestChat(t *testing.T) {
	root := t.TempDir()
	project := "/home/dev/proj"
	oldPath := writeChat(t, root, project, "older.json", map[string]any{
		"messages": []map[string]any{{"type": "user", "content": "stale"}},
	})
	writeChat(t, root, project, "newer.json", map[string]any{
		"messages": []map[string]any{{"type": "user", "content": "fresh"}},
	})

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	p := New(WithRoot(root))
	msgs, err := p.LoadSession("id-not-embedded-anywhere", project)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "fresh", msgs[0].Text())
}

func TestLoadSession_MissingDirYieldsNil(t *testing.T) {
	p := New(WithRoot(t.TempDir()))
	msgs, err := p.LoadSession("sess-1", "/never/seen")
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestListSessions(t *testing.T) {
	root := t.TempDir()
	project := "/home/dev/proj"
	oldPath := writeChat(t, root, project, "a.json", map[string]any{"sessionId": "sess-old"})
	writeChat(t, root, project, "b.json", map[string]any{"sessionId": "sess-new"})

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	p := New(WithRoot(root))
	sessions, err := p.ListSessions(project)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "sess-new", sessions[0].ID)
	assert.Equal(t, "sess-old", sessions[1].ID)
}

func TestHashProjectPath(t *testing.T) {
	// Stable, hex encoded, 64 chars.
	h := hashProjectPath("/home/dev/proj")
	assert.Len(t, h, 64)
	assert.Equal(t, h, hashProjectPath("/home/dev/proj"))
	assert.NotEqual(t, h, hashProjectPath("/home/dev/other"))
}
