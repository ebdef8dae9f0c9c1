package gemini

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/internal/jsonutil"
)

// chatDocument is the stored chat file shape under
// ~/.gemini/tmp/<hash>/chats/.
type chatDocument struct {
	SessionID   string           `json:"sessionId"`
	ProjectHash string           `json:"projectHash"`
	StartTime   string           `json:"startTime"`
	LastUpdated string           `json:"lastUpdated"`
	Messages    []map[string]any `json:"messages"`
}

// LoadSession reads the stored chat for sessionID from the project's
// hashed chat directory. Chats embed their session id; when no file
// matches (older CLI versions omitted the field) the most recently
// modified chat is used instead. A missing directory or unreadable
// files yield nil, never an error.
func (p *Provider) LoadSession(sessionID, projectPath string) ([]agentexec.Message, error) {
	if sessionID == "" || jsonutil.ContainsNull(sessionID) {
		return nil, nil
	}
	dir, ok := p.chatsDir(projectPath)
	if !ok {
		return nil, nil
	}

	doc, ok := findChat(dir, sessionID)
	if !ok {
		return nil, nil
	}

	var msgs []agentexec.Message
	for _, record := range doc.Messages {
		original, _ := json.Marshal(record)
		msg, err := parseRecord(record, original)
		if err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	agentexec.SortMessages(msgs)
	return msgs, nil
}

// ListSessions enumerates the project's stored chats, most recently
// updated first.
func (p *Provider) ListSessions(projectPath string) ([]agentexec.SessionInfo, error) {
	dir, ok := p.chatsDir(projectPath)
	if !ok {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil
	}

	var sessions []agentexec.SessionInfo
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		id := ""
		if doc, ok := readChat(path); ok {
			id = doc.SessionID
		}
		if id == "" {
			id = filepath.Base(path)
		}
		sessions = append(sessions, agentexec.SessionInfo{
			ID:        id,
			Tool:      agentexec.ToolGemini,
			Path:      path,
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// findChat scans dir for the chat embedding sessionID, falling back to
// the most recently modified chat.
func findChat(dir, sessionID string) (*chatDocument, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(matches) == 0 {
		return nil, false
	}

	var latest *chatDocument
	var latestMod int64
	for _, path := range matches {
		doc, ok := readChat(path)
		if !ok {
			continue
		}
		if doc.SessionID == sessionID {
			return doc, true
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == nil || mod > latestMod {
			latest, latestMod = doc, mod
		}
	}
	return latest, latest != nil
}

// readChat decodes one stored chat file.
func readChat(path string) (*chatDocument, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var doc chatDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// chatsDir resolves the chat directory for projectPath: the storage
// root, then the hex sha256 of the absolute project path, then chats.
// Empty projectPath means the current working directory.
func (p *Provider) chatsDir(projectPath string) (string, bool) {
	if projectPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		projectPath = cwd
	}
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return "", false
	}

	root := p.root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		root = filepath.Join(home, ".gemini", "tmp")
	}
	return filepath.Join(root, hashProjectPath(abs), "chats"), true
}

// hashProjectPath is the hex sha256 digest gemini uses to name a
// project's storage directory.
func hashProjectPath(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
