package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEachLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("one\n\ntwo\nthree"), 0o644))

	var lines []string
	ok := EachLine(path, func(line string) { lines = append(lines, line) })
	assert.True(t, ok)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestEachLine_MissingFile(t *testing.T) {
	called := false
	ok := EachLine(filepath.Join(t.TempDir(), "absent.jsonl"), func(string) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
}

func TestEachLine_LongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.jsonl")
	long := strings.Repeat("x", 256*1024)
	require.NoError(t, os.WriteFile(path, []byte(long+"\n"), 0o644))

	var got int
	ok := EachLine(path, func(line string) { got = len(line) })
	assert.True(t, ok)
	assert.Equal(t, len(long), got)
}
