package agentexec

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Tool identifies a supported AI-assistant CLI.
type Tool string

const (
	// ToolClaude is the Claude Code CLI.
	ToolClaude Tool = "claude"

	// ToolCodex is the OpenAI Codex CLI.
	ToolCodex Tool = "codex"

	// ToolGemini is the Gemini CLI.
	ToolGemini Tool = "gemini"

	// ToolCursor is the Cursor CLI. Reserved in the vocabulary; no
	// provider implementation ships yet.
	ToolCursor Tool = "cursor"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is the shared, provider-agnostic representation of one
// conversation turn. Messages are created incrementally as provider
// output parses and are immutable once emitted.
type Message struct {
	// ID uniquely identifies the message. Provider-assigned where the
	// wire format carries one, synthesized otherwise.
	ID string `json:"id"`

	// Role is exactly one of user, assistant, or system.
	Role Role `json:"role"`

	// Content is the ordered sequence of content blocks. Order is
	// significant and reflects emission order.
	Content []ContentBlock `json:"content"`

	// Timestamp is when the message was produced. Defaults to "now"
	// only when the native record supplies no timestamp at all.
	Timestamp time.Time `json:"timestamp"`

	// Tool identifies the provider that produced the message.
	Tool Tool `json:"tool"`

	// Model is the model identifier, when the provider reports one.
	Model string `json:"model,omitempty"`

	// Usage contains token accounting, when the provider reports it.
	Usage *Usage `json:"usage,omitempty"`

	// Original is the untouched provider record, kept for debugging
	// and audit pipelines. It is never re-parsed.
	Original json.RawMessage `json:"original,omitempty"`
}

// Text returns the concatenated text of all Text blocks in the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if t, ok := block.(TextBlock); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// Usage summarizes token accounting for a message or a turn.
type Usage struct {
	// InputTokens is the prompt-side token count.
	InputTokens int `json:"input_tokens"`

	// OutputTokens is the number of tokens generated.
	OutputTokens int `json:"output_tokens"`

	// CacheCreationTokens counts tokens written to the prompt cache.
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`

	// CacheReadTokens counts tokens served from the prompt cache.
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`
}

// TotalTokens is the derived sum of input and output tokens.
func (u *Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Add accumulates other into u. Nil other is a no-op.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}

// SortMessages orders msgs ascending by timestamp, preserving emission
// order for equal stamps. Providers may write transcript records
// slightly out of order; loaders sort before returning.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// TotalUsage sums the usage of all messages carrying one.
// Returns nil when no message reported usage.
func TotalUsage(msgs []Message) *Usage {
	var total *Usage
	for _, m := range msgs {
		if m.Usage == nil {
			continue
		}
		if total == nil {
			total = &Usage{}
		}
		total.Add(m.Usage)
	}
	return total
}
