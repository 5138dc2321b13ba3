// Package scanner enumerates Python source files under a root and computes
// the tree fingerprint used to skip unchanged refresh cycles.
// It honours excluded directory names, doublestar exclude globs and
// .gitignore rules.
package scanner

import "log/slog"

// FileInfo describes one enumerated source file.
type FileInfo struct {
	Path    string // Relative path, forward slashes
	AbsPath string // Absolute path
	ModTime int64  // Modification time in Unix nanoseconds
	Size    int64  // File size in bytes
}

// Options configures enumeration.
type Options struct {
	// ExcludeDirs are directory base names never descended into.
	ExcludeDirs []string

	// Exclude holds doublestar globs matched against relative paths.
	Exclude []string

	// Extensions selects source files by suffix (empty = DefaultExtensions).
	Extensions []string

	// RespectGitignore enables .gitignore parsing.
	RespectGitignore bool

	// FollowSymlinks includes symlinked files (default: false).
	FollowSymlinks bool

	// Logger receives debug output for skipped entries (nil = discard).
	Logger *slog.Logger
}

// DefaultExtensions are the source suffixes scanned when none are configured.
var DefaultExtensions = []string{".py"}

// DefaultExcludeDirs are skipped unless the configuration overrides them.
var DefaultExcludeDirs = []string{
	".git",
	"__pycache__",
	".venv",
	"venv",
	"node_modules",
	".mypy_cache",
	".pytest_cache",
	".tox",
}
