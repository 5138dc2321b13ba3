package watcher

import (
	"log/slog"
	"path"
	"time"
)

// Operation is the kind of change observed.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
	// OpGitignoreChange marks an edit to a .gitignore file. The set of
	// scanned files may change even though no source file did.
	OpGitignoreChange
	// OpConfigChange marks an edit to .livedoc.yaml or .livedoc.yml.
	OpConfigChange
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpGitignoreChange:
		return "GITIGNORE_CHANGE"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change. Path is relative to the watched root
// and uses forward slashes.
type FileEvent struct {
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Options configures a watcher.
type Options struct {
	// DebounceWindow is how long to wait for more events before emitting
	// a batch. Default: 200ms
	DebounceWindow time.Duration

	// PollInterval is the scan interval of the polling fallback. Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the capacity of the batch channel. Default: 100
	EventBufferSize int

	// SkipDirs are directory base names that are never watched.
	SkipDirs []string

	// Filter selects the file paths worth reporting. Nil accepts every file.
	// .gitignore and config files are always reported.
	Filter func(rel string) bool

	// Logger receives dropped-batch warnings (nil = discard).
	Logger *slog.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 100,
	}
}

// WithDefaults fills zero values from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = d.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// classify decides how a relative path is reported.
// ok is false when the event should be dropped.
func (o Options) classify(rel string, isDir bool, op Operation) (Operation, bool) {
	if rel == "" || rel == "." || o.skipped(rel, isDir) {
		return op, false
	}
	if isDir {
		return op, true
	}
	switch path.Base(rel) {
	case ".gitignore":
		return OpGitignoreChange, true
	case ".livedoc.yaml", ".livedoc.yml":
		return OpConfigChange, true
	}
	if o.Filter != nil && !o.Filter(rel) {
		return op, false
	}
	return op, true
}

// skipped reports whether rel lies inside a skipped directory, or is one.
func (o Options) skipped(rel string, isDir bool) bool {
	dir := rel
	if !isDir {
		dir = path.Dir(rel)
	}
	for dir != "." && dir != "/" && dir != "" {
		base := path.Base(dir)
		for _, s := range o.SkipDirs {
			if base == s {
				return true
			}
		}
		dir = path.Dir(dir)
	}
	return false
}
