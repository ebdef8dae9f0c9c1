// Package linebuf reassembles newline-delimited records from arbitrary
// stream chunks. Subprocess stdout arrives in whatever chunk sizes the
// OS pipe delivers; a JSON record may span several chunks or share one
// chunk with its neighbors.
package linebuf

import (
	"bytes"
	"strings"
)

// Buffer is a stateful line accumulator. Not safe for concurrent use;
// the engine calls it from a single reader goroutine.
type Buffer struct {
	emit func(line string)
	rem  []byte
}

// New returns a Buffer that invokes emit exactly once per complete,
// newline-terminated, non-blank record, in arrival order.
func New(emit func(line string)) *Buffer {
	return &Buffer{emit: emit}
}

// Add appends chunk and emits every complete line it closes.
func (b *Buffer) Add(chunk []byte) {
	data := append(b.rem, chunk...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.emitLine(data[:i])
		data = data[i+1:]
	}
	// Copy the remainder: data aliases the append result above and the
	// next Add would otherwise clobber it.
	b.rem = append([]byte(nil), data...)
}

// Flush emits any buffered trailing fragment once and clears state.
// Subsequent Flush calls emit nothing until more data arrives.
func (b *Buffer) Flush() {
	if len(b.rem) > 0 {
		b.emitLine(b.rem)
	}
	b.rem = nil
}

// emitLine strips a trailing CR and suppresses blank lines.
func (b *Buffer) emitLine(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	s := string(line)
	if strings.TrimSpace(s) == "" {
		return
	}
	b.emit(s)
}
