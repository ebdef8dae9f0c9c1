package gemini

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
	"github.com/dmora/agentexec/internal/jsonutil"
)

// ParseLine handles stored chat records, which tag messages with
// type "user" or "gemini". The CLI's execution output is a single
// document rather than a line stream, so during execution every line
// returns engine.ErrSkipLine and ParseDocument does the work.
func (p *Provider) ParseLine(line string) (agentexec.Message, error) {
	if strings.TrimSpace(line) == "" {
		return agentexec.Message{}, engine.ErrSkipLine
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}
	return parseRecord(raw, json.RawMessage(line))
}

// ParseDocument parses the whole-stdout JSON document emitted by
// `gemini -o json`: {"response": ..., "stats": ...} on success, or
// {"error": {...}} on failure. Non-JSON output yields no messages.
func (p *Provider) ParseDocument(stdout string) []agentexec.Message {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil
	}

	if errObj := jsonutil.GetMap(doc, "error"); errObj != nil {
		text := jsonutil.GetString(errObj, "message")
		if text == "" {
			text = "gemini error"
		}
		return []agentexec.Message{{
			ID:       uuid.NewString(),
			Role:     agentexec.RoleSystem,
			Content:  []agentexec.ContentBlock{agentexec.TextBlock{Text: text}},
			Tool:     agentexec.ToolGemini,
			Original: json.RawMessage(trimmed),
		}}
	}

	response := jsonutil.GetString(doc, "response")
	if response == "" {
		return nil
	}
	return []agentexec.Message{{
		ID:       uuid.NewString(),
		Role:     agentexec.RoleAssistant,
		Content:  []agentexec.ContentBlock{agentexec.TextBlock{Text: response}},
		Tool:     agentexec.ToolGemini,
		Usage:    statsUsage(jsonutil.GetMap(doc, "stats")),
		Original: json.RawMessage(trimmed),
	}}
}

// parseRecord maps one stored chat message. Records carry content
// text, optional thoughts, optional token counts, and a timestamp.
func parseRecord(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	var role agentexec.Role
	switch jsonutil.GetString(raw, "type") {
	case "user":
		role = agentexec.RoleUser
	case "gemini", "assistant", "model":
		role = agentexec.RoleAssistant
	default:
		return agentexec.Message{}, engine.ErrSkipLine
	}

	var blocks []agentexec.ContentBlock
	for _, t := range jsonutil.GetSlice(raw, "thoughts") {
		tm, ok := t.(map[string]any)
		if !ok {
			continue
		}
		thinking := jsonutil.GetString(tm, "description")
		if subject := jsonutil.GetString(tm, "subject"); subject != "" && thinking != "" {
			thinking = subject + ": " + thinking
		} else if subject != "" {
			thinking = subject
		}
		if thinking != "" {
			blocks = append(blocks, agentexec.ThinkingBlock{Thinking: thinking})
		}
	}
	if content := jsonutil.GetString(raw, "content"); content != "" {
		blocks = append(blocks, agentexec.TextBlock{Text: content})
	}
	if len(blocks) == 0 {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	id := jsonutil.GetString(raw, "id")
	if id == "" {
		id = uuid.NewString()
	}
	return agentexec.Message{
		ID:        id,
		Role:      role,
		Content:   blocks,
		Timestamp: recordTimestamp(raw),
		Tool:      agentexec.ToolGemini,
		Model:     jsonutil.GetString(raw, "model"),
		Usage:     recordUsage(raw),
		Original:  original,
	}, nil
}

// recordUsage copies a stored record's token counts. Gemini names the
// output side "candidates".
func recordUsage(raw map[string]any) *agentexec.Usage {
	tokens := jsonutil.GetMap(raw, "tokens")
	if tokens == nil {
		return nil
	}
	u := &agentexec.Usage{
		InputTokens:     jsonutil.GetInt(tokens, "input"),
		OutputTokens:    jsonutil.GetInt(tokens, "output"),
		CacheReadTokens: jsonutil.GetInt(tokens, "cached"),
	}
	if u.InputTokens == 0 {
		u.InputTokens = jsonutil.GetInt(tokens, "prompt")
	}
	if u.OutputTokens == 0 {
		u.OutputTokens = jsonutil.GetInt(tokens, "candidates")
	}
	if u.InputTokens == 0 && u.OutputTokens == 0 && u.CacheReadTokens == 0 {
		return nil
	}
	return u
}

// statsUsage aggregates the execution document's per-model token
// stats: {"models": {"<model>": {"tokens": {"prompt": N, ...}}}}.
func statsUsage(stats map[string]any) *agentexec.Usage {
	models := jsonutil.GetMap(stats, "models")
	if models == nil {
		return nil
	}
	u := &agentexec.Usage{}
	for name := range models {
		tokens := jsonutil.GetMap(jsonutil.GetMap(models, name), "tokens")
		if tokens == nil {
			continue
		}
		u.InputTokens += jsonutil.GetInt(tokens, "prompt")
		u.OutputTokens += jsonutil.GetInt(tokens, "candidates")
		u.CacheReadTokens += jsonutil.GetInt(tokens, "cached")
	}
	if u.InputTokens == 0 && u.OutputTokens == 0 && u.CacheReadTokens == 0 {
		return nil
	}
	return u
}

// recordTimestamp parses the record's RFC3339 timestamp; zero when
// absent or malformed.
func recordTimestamp(raw map[string]any) time.Time {
	ts := jsonutil.GetString(raw, "timestamp")
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
