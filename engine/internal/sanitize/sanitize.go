// Package sanitize validates session ids recovered from provider
// output before they reach results and filesystem lookups.
package sanitize

import (
	"unicode"
	"unicode/utf8"
)

// MaxLen is the maximum byte length for a sanitized session id.
const MaxLen = 128

// SessionID validates and truncates a raw session id. Returns "" for
// strings containing control characters or path separators — ids flow
// into transcript filenames, so a hostile value must never traverse.
// Validate-then-truncate: bad runes are rejected first, then rune-safe
// truncation ensures valid UTF-8 output.
func SessionID(raw string) string {
	for _, r := range raw {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return ""
		}
	}
	if len(raw) > MaxLen {
		// Backtrack to the start of the last rune to ensure valid UTF-8.
		end := MaxLen
		for end > 0 && !utf8.RuneStart(raw[end]) {
			end--
		}
		return raw[:end]
	}
	return raw
}
