package codex

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
	"github.com/dmora/agentexec/internal/jsonutil"
)

// toolNames translates codex tool identifiers onto the shared tool
// vocabulary. Unlisted names pass through unchanged.
var toolNames = map[string]string{
	"shell":          "Bash",
	"local_shell":    "Bash",
	"container.exec": "Bash",
	"apply_patch":    "Edit",
	"update_plan":    "TodoWrite",
	"web_search":     "WebSearch",
	"view_image":     "Read",
}

// SessionID recognizes the records that open a codex thread — the
// streaming thread.started event and the persisted session_meta record —
// and recovers the thread id.
func (p *Provider) SessionID(line string) (string, bool) {
	if !gjson.Valid(line) {
		return "", false
	}
	switch gjson.Get(line, "type").String() {
	case "thread.started":
		if id := gjson.Get(line, "thread_id").String(); id != "" {
			return id, true
		}
	case "session_meta":
		if id := gjson.Get(line, "payload.id").String(); id != "" {
			return id, true
		}
	}
	return "", false
}

// ParseLine parses one codex JSONL record into a unified message. Two
// record families share this entry point: the streaming events emitted
// by `codex exec --json` (thread.started, item.completed, turn.*) and
// the persisted rollout records (session_meta, response_item,
// event_msg). Records that carry no message return engine.ErrSkipLine.
func (p *Provider) ParseLine(line string) (agentexec.Message, error) {
	if strings.TrimSpace(line) == "" {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}
	original := json.RawMessage(line)

	switch jsonutil.GetString(raw, "type") {
	case "item.completed":
		return parseItem(jsonutil.GetMap(raw, "item"), original)
	case "turn.completed":
		return parseTurnUsage(raw, original)
	case "turn.failed":
		return parseTurnFailure(raw, original)
	case "error":
		return systemText(jsonutil.GetString(raw, "message"), raw, original)
	case "response_item":
		return parseResponseItem(raw, original)
	case "event_msg":
		return parseEventMsg(raw, original)
	default:
		// thread.started, turn.started, item.started, item.updated,
		// session_meta, turn_context, compacted, and friends.
		return agentexec.Message{}, engine.ErrSkipLine
	}
}

// parseItem maps a completed streaming item. Command executions and
// file changes synthesize tool_use/tool_result pairs so downstream
// consumers see the same shape every provider produces.
func parseItem(item map[string]any, original json.RawMessage) (agentexec.Message, error) {
	if item == nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	kind := jsonutil.GetString(item, "type")
	if kind == "" {
		kind = jsonutil.GetString(item, "item_type")
	}

	var blocks []agentexec.ContentBlock
	switch kind {
	case "agent_message":
		blocks = textBlock(jsonutil.GetString(item, "text"))
	case "reasoning":
		if t := jsonutil.GetString(item, "text"); t != "" {
			blocks = []agentexec.ContentBlock{agentexec.ThinkingBlock{Thinking: t}}
		}
	case "command_execution":
		blocks = commandBlocks(item)
	case "file_change", "file_changes":
		blocks = fileChangeBlocks(item)
	case "mcp_tool_call":
		blocks = mcpBlocks(item)
	case "web_search":
		if q := jsonutil.GetString(item, "query"); q != "" {
			blocks = []agentexec.ContentBlock{agentexec.ToolUseBlock{
				ID:    itemID(item),
				Name:  "WebSearch",
				Input: map[string]any{"query": q},
			}}
		}
	case "error":
		return systemText(jsonutil.GetString(item, "message"), item, original)
	}
	if len(blocks) == 0 {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	return agentexec.Message{
		ID:       itemID(item),
		Role:     agentexec.RoleAssistant,
		Content:  blocks,
		Tool:     agentexec.ToolCodex,
		Original: original,
	}, nil
}

// commandBlocks renders a command_execution item as a tool_use/
// tool_result pair sharing one id. A non-zero exit marks the result as
// an error.
func commandBlocks(item map[string]any) []agentexec.ContentBlock {
	id := itemID(item)
	return []agentexec.ContentBlock{
		agentexec.ToolUseBlock{
			ID:    id,
			Name:  "Bash",
			Input: map[string]any{"command": jsonutil.GetString(item, "command")},
		},
		agentexec.ToolResultBlock{
			ToolUseID: id,
			Content:   jsonutil.GetString(item, "aggregated_output"),
			IsError:   jsonutil.GetInt(item, "exit_code") != 0,
		},
	}
}

// fileChangeBlocks renders each change in a file_change item as its own
// tool_use: additions as Write, modifications as Edit, deletions as a
// Bash rm.
func fileChangeBlocks(item map[string]any) []agentexec.ContentBlock {
	var blocks []agentexec.ContentBlock
	for _, c := range jsonutil.GetSlice(item, "changes") {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		path := jsonutil.GetString(cm, "path")
		if path == "" {
			continue
		}
		var name string
		var input map[string]any
		switch jsonutil.GetString(cm, "kind") {
		case "add":
			name, input = "Write", map[string]any{"file_path": path}
		case "delete":
			name, input = "Bash", map[string]any{"command": "rm " + path}
		default: // modify, update, rename variants
			name, input = "Edit", map[string]any{"file_path": path}
		}
		blocks = append(blocks, agentexec.ToolUseBlock{
			ID:    uuid.NewString(),
			Name:  name,
			Input: input,
		})
	}
	return blocks
}

// mcpBlocks renders an mcp_tool_call as a tool_use, paired with a
// tool_result when the call produced output.
func mcpBlocks(item map[string]any) []agentexec.ContentBlock {
	id := itemID(item)
	name := jsonutil.GetString(item, "tool")
	if server := jsonutil.GetString(item, "server"); server != "" && name != "" {
		name = server + "." + name
	}
	if name == "" {
		name = "mcp_tool_call"
	}

	blocks := []agentexec.ContentBlock{agentexec.ToolUseBlock{
		ID:    id,
		Name:  name,
		Input: jsonutil.GetMap(item, "arguments"),
	}}
	if result, ok := item["result"]; ok && result != nil {
		out, err := json.Marshal(result)
		if err == nil {
			blocks = append(blocks, agentexec.ToolResultBlock{
				ToolUseID: id,
				Content:   string(out),
				IsError:   jsonutil.GetString(item, "status") == "failed",
			})
		}
	}
	return blocks
}

// parseTurnUsage maps the turn.completed event onto a system message
// carrying the turn's token accounting.
func parseTurnUsage(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	usage := parseUsage(jsonutil.GetMap(raw, "usage"))
	if usage == nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}
	return agentexec.Message{
		ID:       uuid.NewString(),
		Role:     agentexec.RoleSystem,
		Content:  textBlock("turn completed"),
		Tool:     agentexec.ToolCodex,
		Usage:    usage,
		Original: original,
	}, nil
}

// parseTurnFailure surfaces turn.failed as a system message so the
// failure text reaches the result instead of vanishing.
func parseTurnFailure(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	errObj := jsonutil.GetMap(raw, "error")
	text := jsonutil.GetString(errObj, "message")
	if text == "" {
		text = "turn failed"
	}
	return systemText(text, raw, original)
}

// parseResponseItem maps a persisted response_item record. These carry
// the canonical conversation: messages, reasoning, and function call
// pairs correlated by call_id.
func parseResponseItem(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	payload := jsonutil.GetMap(raw, "payload")
	if payload == nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	var role agentexec.Role
	var blocks []agentexec.ContentBlock
	switch jsonutil.GetString(payload, "type") {
	case "message":
		role = messageRole(jsonutil.GetString(payload, "role"))
		blocks = messageTextBlocks(payload)
	case "reasoning":
		role = agentexec.RoleAssistant
		blocks = reasoningBlocks(payload)
	case "function_call":
		role = agentexec.RoleAssistant
		blocks = []agentexec.ContentBlock{agentexec.ToolUseBlock{
			ID:    callID(payload),
			Name:  translateToolName(jsonutil.GetString(payload, "name")),
			Input: parseArguments(jsonutil.GetString(payload, "arguments")),
		}}
	case "function_call_output":
		role = agentexec.RoleUser
		content, exitCode := unwrapOutput(jsonutil.GetString(payload, "output"))
		blocks = []agentexec.ContentBlock{agentexec.ToolResultBlock{
			ToolUseID: callID(payload),
			Content:   content,
			IsError:   exitCode != 0,
		}}
	default:
		return agentexec.Message{}, engine.ErrSkipLine
	}
	if len(blocks) == 0 {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	id := jsonutil.GetString(payload, "id")
	if id == "" {
		id = uuid.NewString()
	}
	return agentexec.Message{
		ID:        id,
		Role:      role,
		Content:   blocks,
		Timestamp: recordTimestamp(raw),
		Tool:      agentexec.ToolCodex,
		Model:     jsonutil.GetString(payload, "model"),
		Original:  original,
	}, nil
}

// parseEventMsg maps a persisted event_msg record. These duplicate
// much of the response_item stream in a flatter shape; only the
// variants carrying conversation content or token counts survive.
func parseEventMsg(raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	payload := jsonutil.GetMap(raw, "payload")
	if payload == nil {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	var role agentexec.Role
	var blocks []agentexec.ContentBlock
	var usage *agentexec.Usage
	switch jsonutil.GetString(payload, "type") {
	case "agent_message":
		role = agentexec.RoleAssistant
		blocks = textBlock(jsonutil.GetString(payload, "message"))
	case "user_message":
		role = agentexec.RoleUser
		blocks = textBlock(jsonutil.GetString(payload, "message"))
	case "agent_reasoning":
		role = agentexec.RoleAssistant
		if t := jsonutil.GetString(payload, "text"); t != "" {
			blocks = []agentexec.ContentBlock{agentexec.ThinkingBlock{Thinking: t}}
		}
	case "token_count":
		info := jsonutil.GetMap(payload, "info")
		usage = parseUsage(jsonutil.GetMap(info, "last_token_usage"))
		if usage == nil {
			return agentexec.Message{}, engine.ErrSkipLine
		}
		role = agentexec.RoleSystem
		blocks = textBlock("token count")
	default:
		return agentexec.Message{}, engine.ErrSkipLine
	}
	if len(blocks) == 0 {
		return agentexec.Message{}, engine.ErrSkipLine
	}

	return agentexec.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   blocks,
		Timestamp: recordTimestamp(raw),
		Tool:      agentexec.ToolCodex,
		Usage:     usage,
		Original:  original,
	}, nil
}

// messageRole maps a payload role to the unified vocabulary.
// Anything that is not an assistant is a user.
func messageRole(role string) agentexec.Role {
	if role == "assistant" {
		return agentexec.RoleAssistant
	}
	return agentexec.RoleUser
}

// messageTextBlocks joins a persisted message's content array, whose
// entries are typed text fragments (input_text, output_text, text).
func messageTextBlocks(payload map[string]any) []agentexec.ContentBlock {
	var blocks []agentexec.ContentBlock
	for _, c := range jsonutil.GetSlice(payload, "content") {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		switch jsonutil.GetString(cm, "type") {
		case "input_text", "output_text", "text":
			blocks = append(blocks, textBlock(jsonutil.GetString(cm, "text"))...)
		}
	}
	return blocks
}

// reasoningBlocks collects a persisted reasoning record's summary
// fragments into thinking blocks.
func reasoningBlocks(payload map[string]any) []agentexec.ContentBlock {
	var blocks []agentexec.ContentBlock
	for _, s := range jsonutil.GetSlice(payload, "summary") {
		sm, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if t := jsonutil.GetString(sm, "text"); t != "" {
			blocks = append(blocks, agentexec.ThinkingBlock{Thinking: t})
		}
	}
	return blocks
}

// callID returns the payload's call_id, or a synthesized id when the
// record carries none. The shared call_id is what correlates a
// function_call with its function_call_output.
func callID(payload map[string]any) string {
	if id := jsonutil.GetString(payload, "call_id"); id != "" {
		return id
	}
	return uuid.NewString()
}

// parseArguments decodes a function_call's arguments, which arrive as a
// JSON object serialized into a string. Undecodable arguments are kept
// verbatim under "raw" rather than dropped.
func parseArguments(arguments string) map[string]any {
	if arguments == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return map[string]any{"raw": arguments}
	}
	return m
}

// unwrapOutput decodes a function_call_output payload. Shell outputs
// arrive as a JSON string {"output": ..., "metadata": {"exit_code": N}};
// anything else is returned verbatim with exit code zero.
func unwrapOutput(output string) (string, int) {
	var m map[string]any
	if err := json.Unmarshal([]byte(output), &m); err != nil {
		return output, 0
	}
	text, ok := m["output"].(string)
	if !ok {
		return output, 0
	}
	meta := jsonutil.GetMap(m, "metadata")
	return text, jsonutil.GetInt(meta, "exit_code")
}

// translateToolName maps a codex tool identifier to the shared
// vocabulary, passing unknown names through.
func translateToolName(name string) string {
	if t, ok := toolNames[name]; ok {
		return t
	}
	return name
}

// parseUsage copies token counts from a codex usage object. Codex
// reports cached reads as cached_input_tokens.
func parseUsage(usage map[string]any) *agentexec.Usage {
	if usage == nil {
		return nil
	}
	u := &agentexec.Usage{
		InputTokens:     jsonutil.GetInt(usage, "input_tokens"),
		OutputTokens:    jsonutil.GetInt(usage, "output_tokens"),
		CacheReadTokens: jsonutil.GetInt(usage, "cached_input_tokens"),
	}
	if u.InputTokens == 0 && u.OutputTokens == 0 && u.CacheReadTokens == 0 {
		return nil
	}
	return u
}

// systemText builds a system message with a single text block.
func systemText(text string, raw map[string]any, original json.RawMessage) (agentexec.Message, error) {
	if text == "" {
		return agentexec.Message{}, engine.ErrSkipLine
	}
	return agentexec.Message{
		ID:        uuid.NewString(),
		Role:      agentexec.RoleSystem,
		Content:   textBlock(text),
		Timestamp: recordTimestamp(raw),
		Tool:      agentexec.ToolCodex,
		Original:  original,
	}, nil
}

// textBlock wraps non-empty text in a single TextBlock.
func textBlock(text string) []agentexec.ContentBlock {
	if text == "" {
		return nil
	}
	return []agentexec.ContentBlock{agentexec.TextBlock{Text: text}}
}

// itemID returns the streaming item's id, or a synthesized one.
func itemID(item map[string]any) string {
	if id := jsonutil.GetString(item, "id"); id != "" {
		return id
	}
	return uuid.NewString()
}

// recordTimestamp parses a persisted record's RFC3339 timestamp.
// Streaming events carry none; the zero time lets the engine stamp
// "now".
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
