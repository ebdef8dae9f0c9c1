package claude

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/internal/jsonutil"
	"github.com/dmora/agentexec/internal/transcript"
)

// LoadSession reads the transcript at
// <projects>/<encoded project path>/<sessionID>.jsonl, oldest message
// first. Every record routes through ParseLine; unparseable records are
// dropped. A missing project directory or session file yields nil, never
// an error. Transcripts are re-read from disk on every call.
func (p *Provider) LoadSession(sessionID, projectPath string) ([]agentexec.Message, error) {
	if sessionID == "" || jsonutil.ContainsNull(sessionID) {
		return nil, nil
	}
	dir, ok := p.projectDir(projectPath)
	if !ok {
		return nil, nil
	}

	var msgs []agentexec.Message
	transcript.EachLine(filepath.Join(dir, sessionID+".jsonl"), func(line string) {
		msg, err := p.ParseLine(line)
		if err != nil {
			return
		}
		msgs = append(msgs, msg)
	})

	agentexec.SortMessages(msgs)
	return msgs, nil
}

// ListSessions enumerates the project's transcripts, most recently
// updated first.
func (p *Provider) ListSessions(projectPath string) ([]agentexec.SessionInfo, error) {
	dir, ok := p.projectDir(projectPath)
	if !ok {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, nil
	}

	var sessions []agentexec.SessionInfo
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		sessions = append(sessions, agentexec.SessionInfo{
			ID:        strings.TrimSuffix(filepath.Base(path), ".jsonl"),
			Tool:      agentexec.ToolClaude,
			Path:      path,
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// projectDir resolves the transcript directory for projectPath.
// Empty projectPath means the current working directory.
func (p *Provider) projectDir(projectPath string) (string, bool) {
	if projectPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		projectPath = cwd
	}

	root := p.root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		root = filepath.Join(home, ".claude", "projects")
	}
	return filepath.Join(root, encodeProjectPath(projectPath)), true
}

// encodeProjectPath converts an absolute project path into claude's
// directory naming: "/" and "." become "-".
func encodeProjectPath(path string) string {
	encoded := strings.ReplaceAll(path, "/", "-")
	return strings.ReplaceAll(encoded, ".", "-")
}
