package agentexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageText_ConcatenatesTextBlocks(t *testing.T) {
	m := Message{Content: []ContentBlock{
		TextBlock{Text: "hello "},
		ThinkingBlock{Thinking: "ignored"},
		ToolUseBlock{ID: "t1", Name: "Bash"},
		TextBlock{Text: "world"},
	}}
	assert.Equal(t, "hello world", m.Text())
}

func TestMessageText_Empty(t *testing.T) {
	assert.Equal(t, "", Message{}.Text())
	assert.Equal(t, "", Message{Content: []ContentBlock{ThinkingBlock{Thinking: "x"}}}.Text())
}

func TestSortMessages_OrdersByTimestamp(t *testing.T) {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "c", Timestamp: base.Add(2 * time.Second)},
		{ID: "a", Timestamp: base},
		{ID: "b", Timestamp: base.Add(time.Second)},
	}
	SortMessages(msgs)
	assert.Equal(t, []string{"a", "b", "c"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestSortMessages_StableForEqualStamps(t *testing.T) {
	stamp := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "first", Timestamp: stamp},
		{ID: "second", Timestamp: stamp},
		{ID: "third", Timestamp: stamp},
	}
	SortMessages(msgs)
	assert.Equal(t, "first", msgs[0].ID)
	assert.Equal(t, "second", msgs[1].ID)
	assert.Equal(t, "third", msgs[2].ID)
}

func TestUsage_TotalTokens(t *testing.T) {
	u := &Usage{InputTokens: 100, OutputTokens: 25, CacheReadTokens: 7}
	assert.Equal(t, 125, u.TotalTokens())
}

func TestUsage_Add(t *testing.T) {
	u := &Usage{InputTokens: 1, OutputTokens: 2}
	u.Add(&Usage{InputTokens: 10, OutputTokens: 20, CacheCreationTokens: 3, CacheReadTokens: 4})
	u.Add(nil)
	assert.Equal(t, &Usage{InputTokens: 11, OutputTokens: 22, CacheCreationTokens: 3, CacheReadTokens: 4}, u)
}

func TestTotalUsage(t *testing.T) {
	msgs := []Message{
		{Usage: &Usage{InputTokens: 5, OutputTokens: 1}},
		{},
		{Usage: &Usage{InputTokens: 3, OutputTokens: 2, CacheReadTokens: 9}},
	}
	total := TotalUsage(msgs)
	require.NotNil(t, total)
	assert.Equal(t, 8, total.InputTokens)
	assert.Equal(t, 3, total.OutputTokens)
	assert.Equal(t, 9, total.CacheReadTokens)
}

func TestTotalUsage_NoneReported(t *testing.T) {
	assert.Nil(t, TotalUsage(nil))
	assert.Nil(t, TotalUsage([]Message{{}, {}}))
}
