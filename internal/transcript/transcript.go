// Package transcript reads provider transcript files. Loading never
// mutates provider state, so concurrent reads of the same file are safe
// without locking.
package transcript

import (
	"bufio"
	"os"
)

// Scanner buffer sizing: transcripts routinely carry multi-megabyte
// tool results on a single line.
const (
	initialBuffer = 64 * 1024
	maxLineSize   = 10 * 1024 * 1024
)

// EachLine calls fn for every non-empty line of the file at path.
// A missing or unreadable file is not an error — fn is simply never
// called and ok is false.
func EachLine(path string, fn func(line string)) (ok bool) {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, initialBuffer), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fn(line)
	}
	return scanner.Err() == nil
}
