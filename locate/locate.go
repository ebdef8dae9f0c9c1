// Package locate resolves the filesystem path of installed provider
// binaries. Resolution is uncached: concurrent callers may redundantly
// repeat the lookup, which is safe.
package locate

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Spec describes how to find one provider binary.
type Spec struct {
	// EnvVar is the tool-specific override variable (e.g. CLAUDE_CLI_PATH).
	// Honored only when it names an existing path.
	EnvVar string

	// Command is the name looked up on PATH (e.g. "claude").
	Command string

	// WellKnown is an ordered list of installation paths tried last.
	// Entries may begin with "~/" for the user home directory.
	WellKnown []string
}

// Resolve returns the first binary path that a strategy yields, in
// order: environment override, PATH lookup, well-known paths. Each
// strategy's failure is swallowed — a missing command or lookup error
// means "try next", never an error. Returns ("", false) when all
// strategies fail.
func Resolve(spec Spec) (string, bool) {
	if spec.EnvVar != "" {
		if p := os.Getenv(spec.EnvVar); p != "" && exists(p) {
			return p, true
		}
	}

	if spec.Command != "" {
		if p, err := exec.LookPath(spec.Command); err == nil && exists(p) {
			return p, true
		}
	}

	for _, p := range spec.WellKnown {
		p = expandHome(p)
		if p != "" && exists(p) {
			return p, true
		}
	}

	return "", false
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandHome rewrites a leading "~/" to the user home directory.
// Returns "" when the home directory cannot be determined.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, path[2:])
}
