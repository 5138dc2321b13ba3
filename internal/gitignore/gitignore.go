package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds gitignore rules and provides thread-safe matching.
// Later rules override earlier ones, so a negation can re-include a path.
type Matcher struct {
	rules []rule
	mu    sync.RWMutex
}

type rule struct {
	glob     string // doublestar glob, already prefixed with **/ when unanchored
	negation bool
	dirOnly  bool
	base     string // directory of the .gitignore that declared it
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// AddPattern adds a pattern that applies from the root.
func (m *Matcher) AddPattern(pattern string) {
	m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a pattern that only applies under base.
// Blank lines, comments and patterns doublestar cannot compile are ignored.
func (m *Matcher) AddPatternWithBase(pattern, base string) {
	escapedSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	r := rule{base: strings.Trim(filepath.ToSlash(base), "/")}
	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = pattern[1:]
	}
	if escapedSpace && strings.HasSuffix(pattern, `\`) {
		pattern = strings.TrimSuffix(pattern, `\`) + " "
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimRight(pattern, "/")
	}

	// A leading or inner slash anchors the pattern to base.
	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" {
		return
	}
	if !anchored && !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return
	}
	r.glob = pattern

	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// AddFromFile reads patterns from a gitignore file.
func (m *Matcher) AddFromFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gitignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.AddPatternWithBase(scanner.Text(), base)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read gitignore file: %w", err)
	}
	return nil
}

// Len returns the number of active rules.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// Match reports whether path (relative, any separator) is ignored.
// A path inside an ignored directory is ignored as well.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if path == "" || path == "." {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ignored := false
	for _, r := range m.rules {
		if r.matches(path, isDir) {
			ignored = !r.negation
		}
	}
	return ignored
}

func (r rule) matches(path string, isDir bool) bool {
	if r.base != "" {
		if !strings.HasPrefix(path, r.base+"/") {
			return false
		}
		path = strings.TrimPrefix(path, r.base+"/")
	}

	// Check every ancestor directory, then the path itself.
	parts := strings.Split(path, "/")
	for i := 1; i <= len(parts); i++ {
		candidate := strings.Join(parts[:i], "/")
		candidateIsDir := i < len(parts) || isDir
		if r.dirOnly && !candidateIsDir {
			continue
		}
		if ok, _ := doublestar.Match(r.glob, candidate); ok {
			return true
		}
	}
	return false
}

// MatchesAnyPattern reports whether path matches one of the doublestar
// patterns. Patterns without a slash are matched against every path segment.
func MatchesAnyPattern(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, p := range patterns {
		if !strings.Contains(p, "/") {
			p = "**/" + p
		}
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
