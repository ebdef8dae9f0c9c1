package claude

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
	"github.com/dmora/agentexec/internal/jsonutil"
)

// Slash commands arrive as marker tags embedded in user text.
var (
	commandNameRe    = regexp.MustCompile(`<command-name>([^<]*)</command-name>`)
	commandMessageRe = regexp.MustCompile(`<command-message>([^<]*)</command-message>`)
	commandArgsRe    = regexp.MustCompile(`<command-args>([^<]*)</command-args>`)
	commandTagRe     = regexp.MustCompile(`<command-(?:name|message|args)>[^<]*</command-(?:name|message|args)>`)
)

// SessionID recognizes the claude "session started" record
// (system/init) and recovers its session id.
func (p *Provider) SessionID(line string) (string, bool) {
	if !gjson.Valid(line) {
		return "", false
	}
	if gjson.Get(line, "type").String() != "system" ||
		gjson.Get(line, "subtype").String() != "init" {
		return "", false
	}
	if id := gjson.Get(line, "session_id").String(); id != "" {
		return id, true
	}
	return "", false
}

// ParseLine parses one claude stream-json line (or transcript record —
// both shapes are role-tagged the same way) into a unified message.
// Lines that carry no message — blank input, malformed JSON, result and
// summary records, stream deltas — return engine.ErrSkipLine.
func (p *Provider) ParseLine(line string) (agentexec.Message, error) {
	if strings.TrimSpace(line) == "" {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	switch jsonutil.GetString(raw, "type") {
	case "system":
		return parseSystem(raw, json.RawMessage(line))
	case "assistant", "user":
		return parseChat(raw, json.RawMessage(line))
	default:
		// result, summary, stream_event, and any control records.
		return agentexec.Message{}, engine.ErrSkipLine
	}
}

// parseSystem maps "system" records. The init subtype marks session
// start; other subtypes carry status text.
func parseSystem(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	subtype := jsonutil.GetString(raw, "subtype")
	text := jsonutil.GetString(raw, "message")
	if text == "" {
		text = subtype
	}
	if text == "" {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	return agentexec.Message{
		ID:        recordID(raw),
		Role:      agentexec.RoleSystem,
		Content:   []agentexec.ContentBlock{agentexec.TextBlock{Text: text}},
		Timestamp: recordTimestamp(raw),
		Tool:      agentexec.ToolClaude,
		Model:     jsonutil.GetString(raw, "model"),
		Original:  original,
	}, nil
}

// parseChat maps "user" and "assistant" records. Content is either a
// plain string or an array of typed blocks.
func parseChat(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	message := jsonutil.GetMap(raw, "message")
	role := chatRole(raw, message)

	var blocks []agentexec.ContentBlock
	switch content := message["content"].(type) {
	case string:
		blocks = textBlocks(content, role)
	case []any:
		blocks = contentBlocks(content, role)
	}
	if len(blocks) == 0 {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	id := jsonutil.GetString(message, "id")
	if id == "" {
		id = recordID(raw)
	}

	return agentexec.Message{
		ID:        id,
		Role:      role,
		Content:   blocks,
		Timestamp: recordTimestamp(raw),
		Tool:      agentexec.ToolClaude,
		Model:     jsonutil.GetString(message, "model"),
		Usage:     parseUsage(message),
		Original:  original,
	}, nil
}

// chatRole reads the role from the nested message, falling back to the
// record's type tag. The result is always user or assistant.
func chatRole(raw, message map[string]any) agentexec.Role {
	role := jsonutil.GetString(message, "role")
	if role == "" {
		role = jsonutil.GetString(raw, "type")
	}
	if role == "assistant" {
		return agentexec.RoleAssistant
	}
	return agentexec.RoleUser
}

// contentBlocks maps a claude content array onto unified blocks,
// preserving emission order. Unrecognized block types are dropped.
func contentBlocks(content []any, role agentexec.Role) []agentexec.ContentBlock {
	var blocks []agentexec.ContentBlock
	for _, c := range content {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		switch jsonutil.GetString(cm, "type") {
		case "text":
			blocks = append(blocks, textBlocks(jsonutil.GetString(cm, "text"), role)...)
		case "thinking":
			blocks = append(blocks, agentexec.ThinkingBlock{Thinking: jsonutil.GetString(cm, "thinking")})
		case "tool_use":
			blocks = append(blocks, agentexec.ToolUseBlock{
				ID:    jsonutil.GetString(cm, "id"),
				Name:  jsonutil.GetString(cm, "name"),
				Input: jsonutil.GetMap(cm, "input"),
			})
		case "tool_result":
			blocks = append(blocks, agentexec.ToolResultBlock{
				ToolUseID: jsonutil.GetString(cm, "tool_use_id"),
				Content:   flattenToolResult(cm["content"]),
				IsError:   jsonutil.GetBool(cm, "is_error"),
			})
		case "image":
			source := jsonutil.GetMap(cm, "source")
			blocks = append(blocks, agentexec.ImageBlock{
				Base64Data: jsonutil.GetString(source, "data"),
				MediaType:  jsonutil.GetString(source, "media_type"),
			})
		}
	}
	return blocks
}

// textBlocks splits user text containing slash-command marker tags into
// a SlashCommandBlock plus any remaining free text. Assistant text and
// unmarked user text map to a single TextBlock. Empty text yields none.
func textBlocks(text string, role agentexec.Role) []agentexec.ContentBlock {
	if text == "" {
		return nil
	}
	if role != agentexec.RoleUser || !strings.Contains(text, "<command-name>") {
		return []agentexec.ContentBlock{agentexec.TextBlock{Text: text}}
	}

	m := commandNameRe.FindStringSubmatch(text)
	if m == nil {
		return []agentexec.ContentBlock{agentexec.TextBlock{Text: text}}
	}

	cmd := agentexec.SlashCommandBlock{Command: strings.TrimSpace(m[1])}
	if mm := commandMessageRe.FindStringSubmatch(text); mm != nil {
		cmd.Message = strings.TrimSpace(mm[1])
	}
	if ma := commandArgsRe.FindStringSubmatch(text); ma != nil {
		cmd.Args = strings.TrimSpace(ma[1])
	}

	blocks := []agentexec.ContentBlock{cmd}
	if rest := strings.TrimSpace(commandTagRe.ReplaceAllString(text, "")); rest != "" {
		blocks = append(blocks, agentexec.TextBlock{Text: rest})
	}
	return blocks
}

// flattenToolResult joins tool_result content, which is either a plain
// string or an array of text blocks.
func flattenToolResult(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var b strings.Builder
		for _, item := range c {
			im, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if jsonutil.GetString(im, "type") == "text" {
				b.WriteString(jsonutil.GetString(im, "text"))
			}
		}
		return b.String()
	}
	return ""
}

// parseUsage copies token counts from a message's usage object.
// Returns nil when no meaningful usage data is present.
func parseUsage(message map[string]any) *agentexec.Usage {
	usage := jsonutil.GetMap(message, "usage")
	if usage == nil {
		return nil
	}
	u := &agentexec.Usage{
		InputTokens:         jsonutil.GetInt(usage, "input_tokens"),
		OutputTokens:        jsonutil.GetInt(usage, "output_tokens"),
		CacheCreationTokens: jsonutil.GetInt(usage, "cache_creation_input_tokens"),
		CacheReadTokens:     jsonutil.GetInt(usage, "cache_read_input_tokens"),
	}
	if u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheCreationTokens == 0 && u.CacheReadTokens == 0 {
		return nil
	}
	return u
}

// recordID returns the record's uuid, or a synthesized one.
func recordID(raw map[string]any) string {
	if id := jsonutil.GetString(raw, "uuid"); id != "" {
		return id
	}
	return uuid.NewString()
}

// recordTimestamp parses the record's RFC3339 timestamp. The zero time
// means the record supplied none; the engine stamps "now" in that case.
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
