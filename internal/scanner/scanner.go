package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/gitignore"
)

// gitignoreCacheSize bounds the number of parsed .gitignore files kept.
const gitignoreCacheSize = 1000

// Scanner discovers source files in a project directory.
// It is safe for concurrent use.
type Scanner struct {
	opts        Options
	excludeDirs map[string]struct{}
	logger      *slog.Logger

	// gitignoreCache caches parsed matchers by directory; a nil value
	// records that the directory has no .gitignore.
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu        sync.Mutex
}

// New creates a Scanner with the given options.
func New(opts Options) (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}

	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = DefaultExcludeDirs
	}
	excludeDirs := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excludeDirs[d] = struct{}{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Scanner{
		opts:           opts,
		excludeDirs:    excludeDirs,
		logger:         logger,
		gitignoreCache: cache,
	}, nil
}

// Enumerate lists the source files under root, sorted by relative path.
// A root that is a regular file yields a single entry keyed by its base name.
// Unreadable entries are skipped; a missing root is an error.
func (s *Scanner) Enumerate(ctx context.Context, root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidPath, fmt.Sprintf("invalid root %q", root), err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.New(errors.ErrCodeRootNotFound, fmt.Sprintf("root not found: %s", absRoot), err).
			WithSuggestion("Check the path passed to livedoc")
	}
	if !info.IsDir() {
		return []FileInfo{{
			Path:    filepath.Base(absRoot),
			AbsPath: absRoot,
			ModTime: info.ModTime().UnixNano(),
			Size:    info.Size(),
		}}, nil
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Debug("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.shouldExcludeDir(rel, absRoot) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !s.opts.FollowSymlinks {
			return nil
		}
		if !s.hasSourceExtension(rel) || s.shouldExcludeFile(rel, absRoot) {
			return nil
		}

		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			return nil
		}
		files = append(files, FileInfo{
			Path:    rel,
			AbsPath: path,
			ModTime: fi.ModTime().UnixNano(),
			Size:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Fingerprint enumerates root and digests the result.
func (s *Scanner) Fingerprint(ctx context.Context, root string) (uint64, error) {
	files, err := s.Enumerate(ctx, root)
	if err != nil {
		return 0, err
	}
	return Fingerprint(files), nil
}

// IsSource reports whether a relative path would be enumerated, ignoring
// .gitignore. The watcher uses it to drop irrelevant events.
func (s *Scanner) IsSource(rel string) bool {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if _, ok := s.excludeDirs[p]; ok {
			return false
		}
	}
	return s.hasSourceExtension(rel) && !gitignore.MatchesAnyPattern(rel, s.opts.Exclude)
}

func (s *Scanner) hasSourceExtension(rel string) bool {
	for _, ext := range s.opts.Extensions {
		if strings.HasSuffix(rel, ext) {
			return true
		}
	}
	return false
}

func (s *Scanner) shouldExcludeDir(rel, absRoot string) bool {
	if _, ok := s.excludeDirs[filepath.Base(rel)]; ok {
		return true
	}
	if gitignore.MatchesAnyPattern(rel, s.opts.Exclude) {
		return true
	}
	return s.opts.RespectGitignore && s.isGitignored(rel, absRoot, true)
}

func (s *Scanner) shouldExcludeFile(rel, absRoot string) bool {
	if gitignore.MatchesAnyPattern(rel, s.opts.Exclude) {
		return true
	}
	return s.opts.RespectGitignore && s.isGitignored(rel, absRoot, false)
}

// isGitignored checks the root .gitignore and every nested one on the way
// down to rel.
func (s *Scanner) isGitignored(rel, absRoot string, isDir bool) bool {
	if m := s.getGitignoreMatcher(absRoot, ""); m != nil && m.Match(rel, isDir) {
		return true
	}

	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		return false
	}
	base := ""
	for _, part := range strings.Split(dir, "/") {
		if base == "" {
			base = part
		} else {
			base = base + "/" + part
		}
		m := s.getGitignoreMatcher(filepath.Join(absRoot, filepath.FromSlash(base)), base)
		if m != nil && m.Match(rel, isDir) {
			return true
		}
	}
	return false
}

func (s *Scanner) getGitignoreMatcher(dir, base string) *gitignore.Matcher {
	s.cacheMu.Lock()
	matcher, ok := s.gitignoreCache.Get(dir)
	s.cacheMu.Unlock()
	if ok {
		return matcher
	}

	matcher = gitignore.New()
	if err := matcher.AddFromFile(filepath.Join(dir, ".gitignore"), base); err != nil {
		matcher = nil
	}

	s.cacheMu.Lock()
	s.gitignoreCache.Add(dir, matcher)
	s.cacheMu.Unlock()
	return matcher
}

// InvalidateGitignoreCache drops every parsed .gitignore.
// Call it when a .gitignore file changes.
func (s *Scanner) InvalidateGitignoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gitignoreCache.Purge()
}
