package agentexec

import "encoding/json"

// ContentBlock is one typed unit of message content. The set of
// implementations is closed: TextBlock, ThinkingBlock, ToolUseBlock,
// ToolResultBlock, SlashCommandBlock, and ImageBlock.
//
// Correlation invariant: a ToolResultBlock's ToolUseID equals the ID of
// a ToolUseBlock emitted earlier in the same conversation. Parsers
// establish this pairing; nothing re-checks it globally.
type ContentBlock interface {
	// BlockType returns the discriminator tag ("text", "thinking",
	// "tool_use", "tool_result", "slash_command", "image").
	BlockType() string
}

// TextBlock is plain text content.
type TextBlock struct {
	Text string `json:"text"`
}

// ThinkingBlock is model reasoning content.
type ThinkingBlock struct {
	Thinking string `json:"thinking"`
}

// ToolUseBlock records the agent invoking a tool.
type ToolUseBlock struct {
	// ID correlates this invocation with a later ToolResultBlock.
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// ToolResultBlock records the outcome of a tool invocation.
type ToolResultBlock struct {
	// ToolUseID names the earlier ToolUseBlock this result answers.
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// SlashCommandBlock records a user-issued slash command.
type SlashCommandBlock struct {
	Command string `json:"command"`
	Message string `json:"message,omitempty"`
	Args    string `json:"args,omitempty"`
}

// ImageBlock is inline image content.
type ImageBlock struct {
	Base64Data string `json:"base64_data"`
	MediaType  string `json:"media_type"`
}

func (TextBlock) BlockType() string         { return "text" }
func (ThinkingBlock) BlockType() string     { return "thinking" }
func (ToolUseBlock) BlockType() string      { return "tool_use" }
func (ToolResultBlock) BlockType() string   { return "tool_result" }
func (SlashCommandBlock) BlockType() string { return "slash_command" }
func (ImageBlock) BlockType() string        { return "image" }

// Compile-time closed-set checks.
var (
	_ ContentBlock = TextBlock{}
	_ ContentBlock = ThinkingBlock{}
	_ ContentBlock = ToolUseBlock{}
	_ ContentBlock = ToolResultBlock{}
	_ ContentBlock = SlashCommandBlock{}
	_ ContentBlock = ImageBlock{}
)

// marshalBlock serializes a block with its discriminator tag injected.
// Blocks are write-only at the JSON boundary — consumers that need the
// provider's native shape read Message.Original instead.
func marshalBlock(tag string, v any) ([]byte, error) {
	inner, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(inner, &m); err != nil {
		return nil, err
	}
	m["type"] = tag
	return json.Marshal(m)
}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	type alias TextBlock
	return marshalBlock(b.BlockType(), alias(b))
}

func (b ThinkingBlock) MarshalJSON() ([]byte, error) {
	type alias ThinkingBlock
	return marshalBlock(b.BlockType(), alias(b))
}

func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	type alias ToolUseBlock
	return marshalBlock(b.BlockType(), alias(b))
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	type alias ToolResultBlock
	return marshalBlock(b.BlockType(), alias(b))
}

func (b SlashCommandBlock) MarshalJSON() ([]byte, error) {
	type alias SlashCommandBlock
	return marshalBlock(b.BlockType(), alias(b))
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	type alias ImageBlock
	return marshalBlock(b.BlockType(), alias(b))
}
