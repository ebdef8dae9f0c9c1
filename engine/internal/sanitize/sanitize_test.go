package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionID_Valid(t *testing.T) {
	assert.Equal(t, "0199a213-81ef-7632", SessionID("0199a213-81ef-7632"))
}

func TestSessionID_ControlChars(t *testing.T) {
	assert.Equal(t, "", SessionID("sess\x00id"))
	assert.Equal(t, "", SessionID("sess\nid"))
}

func TestSessionID_PathSeparators(t *testing.T) {
	assert.Equal(t, "", SessionID("../escape"))
	assert.Equal(t, "", SessionID(`..\escape`))
}

func TestSessionID_TooLong(t *testing.T) {
	got := SessionID(strings.Repeat("a", 200))
	assert.Len(t, got, MaxLen)
}

func TestSessionID_MultibyteTruncation(t *testing.T) {
	// ASCII up to one byte short of the limit, then a 3-byte rune
	// straddling it: the rune must be cleanly dropped.
	s := strings.Repeat("a", MaxLen-2) + "日"
	got := SessionID(s)
	assert.LessOrEqual(t, len(got), MaxLen)
	assert.Equal(t, strings.Repeat("a", MaxLen-2), got)
}

func TestSessionID_Empty(t *testing.T) {
	assert.Equal(t, "", SessionID(""))
}
