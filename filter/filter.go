// Package filter provides composable predicates for selecting messages
// out of a conversation. Consumers narrow LoadSession results or wrap
// an OnMessage callback to the granularity they need.
package filter

import (
	"strings"

	"github.com/samber/lo"

	"github.com/dmora/agentexec"
)

// Predicate reports whether a message should be kept.
type Predicate func(agentexec.Message) bool

// Messages returns the messages matching every predicate, in order.
func Messages(msgs []agentexec.Message, preds ...Predicate) []agentexec.Message {
	return lo.Filter(msgs, func(m agentexec.Message, _ int) bool {
		return matches(m, preds)
	})
}

// OnMessage wraps an engine OnMessage callback so it only fires for
// messages matching every predicate.
func OnMessage(fn func(agentexec.Message), preds ...Predicate) func(agentexec.Message) {
	return func(m agentexec.Message) {
		if matches(m, preds) {
			fn(m)
		}
	}
}

// ByRole keeps messages whose role is one of roles.
func ByRole(roles ...agentexec.Role) Predicate {
	allowed := make(map[agentexec.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(m agentexec.Message) bool {
		_, ok := allowed[m.Role]
		return ok
	}
}

// HasText keeps messages carrying at least one non-empty text block.
func HasText() Predicate {
	return func(m agentexec.Message) bool {
		return m.Text() != ""
	}
}

// HasToolUse keeps messages containing a tool_use block, optionally
// restricted to the named tools.
func HasToolUse(names ...string) Predicate {
	return func(m agentexec.Message) bool {
		for _, block := range m.Content {
			tu, ok := block.(agentexec.ToolUseBlock)
			if !ok {
				continue
			}
			if len(names) == 0 || lo.Contains(names, tu.Name) {
				return true
			}
		}
		return false
	}
}

// TextContains keeps messages whose text contains substr,
// case-insensitively.
func TextContains(substr string) Predicate {
	needle := strings.ToLower(substr)
	return func(m agentexec.Message) bool {
		return strings.Contains(strings.ToLower(m.Text()), needle)
	}
}

func matches(m agentexec.Message, preds []Predicate) bool {
	for _, p := range preds {
		if !p(m) {
			return false
		}
	}
	return true
}
