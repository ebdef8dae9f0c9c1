package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine"
)

func TestParseLine_SkipsControlRecords(t *testing.T) {
	p := New()
	for _, line := range []string{
		"",
		"not json",
		`{"type":"thread.started","thread_id":"t"}`,
		`{"type":"turn.started"}`,
		`{"type":"item.started","item":{"type":"agent_message"}}`,
		`{"type":"item.updated","item":{"type":"agent_message"}}`,
		`{"type":"session_meta","payload":{"id":"s"}}`,
		`{"type":"turn_context","payload":{}}`,
	} {
		_, err := p.ParseLine(line)
		assert.ErrorIs(t, err, engine.ErrSkipLine, "line %q", line)
	}
}

func TestParseLine_StreamingAgentMessage(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"item.completed","item":{"id":"item_1","type":"agent_message","text":"done"}}`)
	require.NoError(t, err)
	assert.Equal(t, "item_1", msg.ID)
	assert.Equal(t, agentexec.RoleAssistant, msg.Role)
	assert.Equal(t, agentexec.ToolCodex, msg.Tool)
	assert.Equal(t, "done", msg.Text())
}

func TestParseLine_StreamingReasoning(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"item.completed","item":{"type":"reasoning","text":"thinking it over"}}`)
	require.NoError(t, err)
	require.Len(t, msg.Content, 1)
	th, ok := msg.Content[0].(agentexec.ThinkingBlock)
	require.True(t, ok)
	assert.Equal(t, "thinking it over", th.Thinking)
}

func TestParseLine_CommandExecutionPair(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"item.completed","item":{"id":"item_2","type":"command_execution","command":"ls -la","aggregated_output":"total 8","exit_code":0}}`)
	require.NoError(t, err)
	require.Len(t, msg.Content, 2)

	use, ok := msg.Content[0].(agentexec.ToolUseBlock)
	require.True(t, ok)
	res, ok := msg.Content[1].(agentexec.ToolResultBlock)
	require.True(t, ok)

	assert.Equal(t, "Bash", use.Name)
	assert.Equal(t, map[string]any{"command": "ls -la"}, use.Input)
	// The pair shares one id.
	assert.Equal(t, use.ID, res.ToolUseID)
	assert.Equal(t, "total 8", res.Content)
	assert.False(t, res.IsError)
}

func TestParseLine_CommandExecutionFailure(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"item.completed","item":{"type":"command_execution","command":"false","aggregated_output":"","exit_code":1}}`)
	require.NoError(t, err)
	res, ok := msg.Content[1].(agentexec.ToolResultBlock)
	require.True(t, ok)
	assert.True(t, res.IsError)
}

func TestParseLine_FileChangeKinds(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"item.completed","item":{"type":"file_change","changes":[{"path":"a.go","kind":"add"},{"path":"b.go","kind":"modify"},{"path":"c.go","kind":"delete"}]}}`)
	require.NoError(t, err)
	require.Len(t, msg.Content, 3)

	add := msg.Content[0].(agentexec.ToolUseBlock)
	assert.Equal(t, "Write", add.Name)
	assert.Equal(t, map[string]any{"file_path": "a.go"}, add.Input)

	mod := msg.Content[1].(agentexec.ToolUseBlock)
	assert.Equal(t, "Edit", mod.Name)

	del := msg.Content[2].(agentexec.ToolUseBlock)
	assert.Equal(t, "Bash", del.Name)
	assert.Equal(t, map[string]any{"command": "rm c.go"}, del.Input)

	// Each change gets its own id.
	assert.NotEqual(t, add.ID, mod.ID)
}

func TestParseLine_TurnCompletedUsage(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"turn.completed","usage":{"input_tokens":120,"cached_input_tokens":30,"output_tokens":45}}`)
	require.NoError(t, err)
	assert.Equal(t, agentexec.RoleSystem, msg.Role)
	require.NotNil(t, msg.Usage)
	assert.Equal(t, 120, msg.Usage.InputTokens)
	assert.Equal(t, 45, msg.Usage.OutputTokens)
	assert.Equal(t, 30, msg.Usage.CacheReadTokens)
}

func TestParseLine_TurnCompletedWithoutUsageSkipped(t *testing.T) {
	p := New()
	_, err := p.ParseLine(`{"type":"turn.completed"}`)
	assert.ErrorIs(t, err, engine.ErrSkipLine)
}

func TestParseLine_TurnFailed(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"turn.failed","error":{"message":"rate limited"}}`)
	require.NoError(t, err)
	assert.Equal(t, agentexec.RoleSystem, msg.Role)
	assert.Equal(t, "rate limited", msg.Text())
}

func TestParseLine_PersistedMessage(t *testing.T) {
	p := New()
	line := `{"type":"response_item","timestamp":"2026-01-15T10:30:00Z","payload":{"type":"message","id":"msg_9","role":"user","content":[{"type":"input_text","text":"hi there"}]}}`
	msg, err := p.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, "msg_9", msg.ID)
	assert.Equal(t, agentexec.RoleUser, msg.Role)
	assert.Equal(t, "hi there", msg.Text())
	assert.False(t, msg.Timestamp.IsZero())
}

func TestParseLine_PersistedFunctionCallPair(t *testing.T) {
	p := New()
	call, err := p.ParseLine(`{"type":"response_item","payload":{"type":"function_call","call_id":"call_1","name":"shell","arguments":"{\"command\":[\"bash\",\"-lc\",\"ls\"]}"}}`)
	require.NoError(t, err)
	use, ok := call.Content[0].(agentexec.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, "call_1", use.ID)
	assert.Equal(t, "Bash", use.Name) // shell translates
	assert.Equal(t, []any{"bash", "-lc", "ls"}, use.Input["command"])

	out, err := p.ParseLine(`{"type":"response_item","payload":{"type":"function_call_output","call_id":"call_1","output":"{\"output\":\"main.go\\n\",\"metadata\":{\"exit_code\":0}}"}}`)
	require.NoError(t, err)
	res, ok := out.Content[0].(agentexec.ToolResultBlock)
	require.True(t, ok)
	// Correlated by call_id.
	assert.Equal(t, use.ID, res.ToolUseID)
	assert.Equal(t, "main.go\n", res.Content)
	assert.False(t, res.IsError)
}

func TestParseLine_PersistedOutputNonZeroExit(t *testing.T) {
	p := New()
	out, err := p.ParseLine(`{"type":"response_item","payload":{"type":"function_call_output","call_id":"c","output":"{\"output\":\"denied\",\"metadata\":{\"exit_code\":126}}"}}`)
	require.NoError(t, err)
	res := out.Content[0].(agentexec.ToolResultBlock)
	assert.True(t, res.IsError)
	assert.Equal(t, "denied", res.Content)
}

func TestParseLine_PersistedOutputPlainString(t *testing.T) {
	p := New()
	out, err := p.ParseLine(`{"type":"response_item","payload":{"type":"function_call_output","call_id":"c","output":"plain result"}}`)
	require.NoError(t, err)
	res := out.Content[0].(agentexec.ToolResultBlock)
	assert.Equal(t, "plain result", res.Content)
	assert.False(t, res.IsError)
}

func TestParseLine_PersistedReasoning(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"response_item","payload":{"type":"reasoning","summary":[{"type":"summary_text","text":"plan A"},{"type":"summary_text","text":"plan B"}]}}`)
	require.NoError(t, err)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, "plan A", msg.Content[0].(agentexec.ThinkingBlock).Thinking)
}

func TestParseLine_EventMsgVariants(t *testing.T) {
	p := New()

	msg, err := p.ParseLine(`{"type":"event_msg","payload":{"type":"agent_message","message":"answer"}}`)
	require.NoError(t, err)
	assert.Equal(t, agentexec.RoleAssistant, msg.Role)
	assert.Equal(t, "answer", msg.Text())

	msg, err = p.ParseLine(`{"type":"event_msg","payload":{"type":"user_message","message":"question"}}`)
	require.NoError(t, err)
	assert.Equal(t, agentexec.RoleUser, msg.Role)

	msg, err = p.ParseLine(`{"type":"event_msg","payload":{"type":"agent_reasoning","text":"mull"}}`)
	require.NoError(t, err)
	assert.Equal(t, "mull", msg.Content[0].(agentexec.ThinkingBlock).Thinking)

	_, err = p.ParseLine(`{"type":"event_msg","payload":{"type":"task_started"}}`)
	assert.ErrorIs(t, err, engine.ErrSkipLine)
}

func TestParseLine_EventMsgTokenCount(t *testing.T) {
	p := New()
	msg, err := p.ParseLine(`{"type":"event_msg","payload":{"type":"token_count","info":{"last_token_usage":{"input_tokens":10,"output_tokens":4}}}}`)
	require.NoError(t, err)
	assert.Equal(t, agentexec.RoleSystem, msg.Role)
	require.NotNil(t, msg.Usage)
	assert.Equal(t, 14, msg.Usage.TotalTokens())

	_, err = p.ParseLine(`{"type":"event_msg","payload":{"type":"token_count"}}`)
	assert.ErrorIs(t, err, engine.ErrSkipLine)
}

func TestTranslateToolName(t *testing.T) {
	assert.Equal(t, "Bash", translateToolName("shell"))
	assert.Equal(t, "Edit", translateToolName("apply_patch"))
	assert.Equal(t, "TodoWrite", translateToolName("update_plan"))
	assert.Equal(t, "WebSearch", translateToolName("web_search"))
	assert.Equal(t, "Read", translateToolName("view_image"))
	assert.Equal(t, "custom_tool", translateToolName("custom_tool"))
}

func TestParseArguments_Undecodable(t *testing.T) {
	assert.Equal(t, map[string]any{"raw": "not json"}, parseArguments("not json"))
	assert.Nil(t, parseArguments(""))
}
