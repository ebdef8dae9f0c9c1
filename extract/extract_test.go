package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructured(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
		ok    bool
	}{
		{
			name:  "whole string object",
			input: `{"a": 1}`,
			want:  map[string]any{"a": float64(1)},
			ok:    true,
		},
		{
			name:  "whole string array",
			input: ` [1, 2] `,
			want:  []any{float64(1), float64(2)},
			ok:    true,
		},
		{
			name:  "fenced block with language tag",
			input: "Here you go:\n```json\n{\"b\": true}\n```\nDone.",
			want:  map[string]any{"b": true},
			ok:    true,
		},
		{
			name:  "fenced block without tag",
			input: "```\n{\"c\": null}\n```",
			want:  map[string]any{"c": nil},
			ok:    true,
		},
		{
			name:  "embedded object in prose",
			input: `The answer is {"x": "y"} as requested.`,
			want:  map[string]any{"x": "y"},
			ok:    true,
		},
		{
			name:  "braces inside string literals",
			input: `prefix {"text": "open { and close }"} suffix`,
			want:  map[string]any{"text": "open { and close }"},
			ok:    true,
		},
		{
			name:  "no json at all",
			input: "no json here",
			ok:    false,
		},
		{
			name:  "unbalanced brace",
			input: `{"a": 1`,
			ok:    false,
		},
		{
			name:  "empty input",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Structured(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStructured_PrefersWholeStringOverEmbedded(t *testing.T) {
	got, ok := Structured(`{"outer": {"inner": 1}}`)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"outer": map[string]any{"inner": float64(1)}}, got)
}

func TestFirstBalanced_EscapedQuotes(t *testing.T) {
	got, ok := Structured(`x {"s": "quote \" and brace }"} y`)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"s": `quote " and brace }`}, got)
}
