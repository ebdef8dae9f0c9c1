package codex

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/internal/jsonutil"
	"github.com/dmora/agentexec/internal/transcript"
)

// rolloutRe extracts the session id from a rollout filename:
// rollout-2026-01-15T10-30-00-<uuid>.jsonl
var rolloutRe = regexp.MustCompile(`^rollout-.*-([0-9a-fA-F-]{36})\.jsonl$`)

// errStopWalk aborts a filesystem walk once the target is found.
var errStopWalk = errors.New("codex: stop walk")

// LoadSession walks the rollout tree under ~/.codex/sessions (date
// sharded as YYYY/MM/DD) for the transcript whose filename ends in the
// session id, and parses it oldest message first. projectPath is
// accepted for interface symmetry; codex shards transcripts by date,
// not by project. A missing tree or unknown id yields nil, never an
// error.
func (p *Provider) LoadSession(sessionID, projectPath string) ([]agentexec.Message, error) {
	if sessionID == "" || jsonutil.ContainsNull(sessionID) {
		return nil, nil
	}
	root, ok := p.sessionsRoot()
	if !ok {
		return nil, nil
	}

	path, found := findRollout(root, sessionID)
	if !found {
		return nil, nil
	}

	var msgs []agentexec.Message
	transcript.EachLine(path, func(line string) {
		msg, err := p.ParseLine(line)
		if err != nil {
			return
		}
		msgs = append(msgs, msg)
	})

	agentexec.SortMessages(msgs)
	return msgs, nil
}

// ListSessions enumerates every rollout transcript under the sessions
// root, most recently updated first. projectPath is ignored; codex
// transcripts are not project scoped.
func (p *Provider) ListSessions(projectPath string) ([]agentexec.SessionInfo, error) {
	root, ok := p.sessionsRoot()
	if !ok {
		return nil, nil
	}

	var sessions []agentexec.SessionInfo
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		m := rolloutRe.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		sessions = append(sessions, agentexec.SessionInfo{
			ID:        m[1],
			Tool:      agentexec.ToolCodex,
			Path:      path,
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// findRollout locates the rollout file for sessionID anywhere under
// root. Filenames embed the id as their final component, so a suffix
// match is enough; the walk stops at the first hit.
func findRollout(root, sessionID string) (string, bool) {
	suffix := "-" + sessionID + ".jsonl"
	var match string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "rollout-") && strings.HasSuffix(name, suffix) {
			match = path
			return errStopWalk
		}
		return nil
	})
	return match, match != ""
}

// sessionsRoot resolves the rollout tree root.
func (p *Provider) sessionsRoot() (string, bool) {
	if p.root != "" {
		return p.root, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".codex", "sessions"), true
}
