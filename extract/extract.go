// Package extract performs best-effort extraction of structured JSON
// from unstructured CLI output. Models asked for JSON frequently wrap
// it in prose or a fenced code block; callers that requested structured
// data get whatever can be recovered, or fall back to raw text.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// fenceRe matches a fenced code block with an optional language tag.
var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n(.*?)```")

// Structured extracts a JSON value from text, trying in order: the
// whole trimmed string, the interior of a fenced code block, and the
// first balanced {...} or [...] substring. First success wins.
// Returns (nil, false) when nothing parses.
func Structured(text string) (any, bool) {
	if v, ok := decode(strings.TrimSpace(text)); ok {
		return v, true
	}

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		if v, ok := decode(strings.TrimSpace(m[1])); ok {
			return v, true
		}
	}

	if candidate := firstBalanced(text); candidate != "" {
		if v, ok := decode(candidate); ok {
			return v, true
		}
	}

	return nil, false
}

// decode parses s as a JSON value. gjson.Valid screens candidates
// cheaply before the full decode.
func decode(s string) (any, bool) {
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// firstBalanced returns the first balanced-looking {...} or [...]
// substring of text, tracking string literals and escapes so braces
// inside strings don't miscount. Returns "" when none closes.
func firstBalanced(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if c := text[i]; c == '{' || c == '[' {
			start = i
			open = c
			close = '}'
			if c == '[' {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Ignore structural characters inside strings.
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
