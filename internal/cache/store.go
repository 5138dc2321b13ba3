package cache

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/livedoc/internal/doc"
	"github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/scanner"
)

// Extractor turns one source file into a Document.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, absPath, relPath string) (*doc.Document, error)
}

// DefaultSearchLimit is the page size used when a caller passes limit <= 0.
const DefaultSearchLimit = 200

// DefaultQueryCacheSize is the number of search results kept per store.
const DefaultQueryCacheSize = 256

// Options configures a Store.
type Options struct {
	// Root is the directory (or single file) to document.
	Root string

	// Workers bounds parallel extraction (0 = NumCPU).
	Workers int

	// SearchLimit is the default page size (0 = DefaultSearchLimit).
	SearchLimit int

	// QueryCacheSize bounds the search result cache (0 = DefaultQueryCacheSize,
	// negative disables it).
	QueryCacheSize int

	Logger *slog.Logger
}

// Store owns the published Generation.
type Store struct {
	root        string
	extractor   Extractor
	scanner     *scanner.Scanner
	logger      *slog.Logger
	workers     int
	searchLimit int

	// mu guards gen and lastStats. It is held only to read or swap them.
	mu        sync.RWMutex
	gen       *Generation
	scanned   bool
	lastStats ScanStats

	// writeMu serializes ScanAndUpdate.
	writeMu sync.Mutex

	results *lru.Cache[queryKey, []Result]

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New creates a Store. Nothing is scanned until ScanAndUpdate is called.
func New(opts Options, extractor Extractor, sc *scanner.Scanner) (*Store, error) {
	if opts.Root == "" {
		return nil, errors.ValidationError("cache root is required", nil)
	}
	if extractor == nil || sc == nil {
		return nil, errors.ValidationError("cache needs an extractor and a scanner", nil)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		root:        opts.Root,
		extractor:   extractor,
		scanner:     sc,
		logger:      logger,
		workers:     workers,
		searchLimit: limit,
		gen:         emptyGeneration(),
		subs:        make(map[chan Event]struct{}),
	}

	size := opts.QueryCacheSize
	if size == 0 {
		size = DefaultQueryCacheSize
	}
	if size > 0 {
		c, err := lru.New[queryKey, []Result](size)
		if err != nil {
			return nil, fmt.Errorf("failed to create query cache: %w", err)
		}
		s.results = c
	}
	return s, nil
}

// Root returns the scanned root as configured.
func (s *Store) Root() string {
	return s.root
}

// ScanAndUpdate runs one refresh cycle and reports whether a new generation
// was published. On error or panic the previous generation stays current
// and the error carries ERR_505_SCAN_FAILED.
func (s *Store) ScanAndUpdate(ctx context.Context) (changed bool, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			changed = false
			err = errors.New(errors.ErrCodeScanFailed, fmt.Sprintf("scan panicked: %v", r), nil)
			s.logger.Error("scan cycle panicked", slog.Any("panic", r))
		}
	}()

	s.mu.RLock()
	var prev *Generation
	if s.scanned {
		prev = s.gen
	}
	s.mu.RUnlock()

	next, stats, changed, err := s.scan(ctx, prev)
	if err != nil {
		scanErr := errors.New(errors.ErrCodeScanFailed, "scan cycle failed", err)
		s.logger.LogAttrs(ctx, slog.LevelError, "scan cycle failed", errors.LogAttrs(scanErr)...)
		return false, scanErr
	}

	if !changed {
		s.mu.Lock()
		s.lastStats = stats
		s.mu.Unlock()
		return false, nil
	}

	next.Timestamp = time.Now()
	if prev != nil {
		next.Seq = prev.Seq + 1
	} else {
		next.Seq = 1
	}

	s.mu.Lock()
	s.gen = next
	s.scanned = true
	s.lastStats = stats
	s.mu.Unlock()

	if s.results != nil {
		s.results.Purge()
	}

	s.logger.Info("generation published",
		slog.Uint64("generation", next.Seq),
		slog.Int("modules", len(next.Documents)),
		slog.Int("extracted", stats.Extracted),
		slog.Int("reused", stats.Reused),
		slog.Int("removed", stats.Removed),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))

	s.publish(Event{Generation: next.Seq, Timestamp: next.Timestamp, Modules: len(next.Documents)})
	return true, nil
}

// Current returns the published generation. It must be treated as read-only.
func (s *Store) Current() *Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Snapshot returns shallow copies of the published documents and metadata.
func (s *Store) Snapshot() Snapshot {
	return s.Current().snapshot()
}

// Document returns the module document for a relative path.
func (s *Store) Document(path string) (*doc.Document, bool) {
	d, ok := s.Current().Documents[doc.ModuleKey(path)]
	return d, ok
}

// LastStats returns the statistics of the most recent successful cycle.
func (s *Store) LastStats() ScanStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStats
}

// InvalidateGitignoreCache forces .gitignore files to be re-read on the
// next cycle.
func (s *Store) InvalidateGitignoreCache() {
	s.scanner.InvalidateGitignoreCache()
}

// Subscribe returns a channel that receives an Event for every published
// generation, and a function that ends the subscription. Slow subscribers
// miss intermediate events; the channel always holds the latest pending one.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		// replace the stale pending event
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
