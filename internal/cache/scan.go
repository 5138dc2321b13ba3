package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/livedoc/internal/doc"
	"github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/index"
	"github.com/Aman-CERP/livedoc/internal/scanner"
)

// FileError records a file dropped from a generation.
type FileError struct {
	Path string
	Err  error
}

// ScanStats summarises one scan cycle.
type ScanStats struct {
	Files     int           `json:"files"`
	Extracted int           `json:"extracted"`
	Reused    int           `json:"reused"`
	Removed   int           `json:"removed"`
	Failed    int           `json:"failed"`
	Errors    []FileError   `json:"-"`
	Duration  time.Duration `json:"duration_ns"`
	Skipped   bool          `json:"skipped"`
}

type extraction struct {
	key  string
	file scanner.FileInfo
	doc  *doc.Document
	err  error
}

// scan builds the successor of prev. prev is nil before the first scan.
// changed is false when the tree fingerprint matches prev; the caller then
// keeps prev as is.
func (s *Store) scan(ctx context.Context, prev *Generation) (*Generation, ScanStats, bool, error) {
	start := time.Now()
	var stats ScanStats

	files, err := s.scanner.Enumerate(ctx, s.root)
	if err != nil {
		return nil, stats, false, err
	}
	stats.Files = len(files)

	fp := scanner.Fingerprint(files)
	if prev != nil && fp == prev.Fingerprint {
		stats.Skipped = true
		stats.Duration = time.Since(start)
		return prev, stats, false, nil
	}

	prevDocs := map[string]*doc.Document{}
	prevMTimes := map[string]int64{}
	if prev != nil {
		prevDocs, prevMTimes = prev.Documents, prev.MTimes
	}

	docs := make(map[string]*doc.Document, len(files))
	mtimes := make(map[string]int64, len(files))
	var work []*extraction
	for _, f := range files {
		key := doc.ModuleKey(f.Path)
		mtimes[key] = f.ModTime
		if d, ok := prevDocs[key]; ok {
			if mt, seen := prevMTimes[key]; seen && mt == f.ModTime {
				docs[key] = d
				stats.Reused++
				continue
			}
		}
		work = append(work, &extraction{key: key, file: f})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, w := range work {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.New(errors.ErrCodeScanFailed,
						fmt.Sprintf("extractor panicked on %s: %v", w.key, r), nil)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			w.doc, w.err = s.extractor.Extract(gctx, w.file.AbsPath, w.key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, false, err
	}

	for _, w := range work {
		if w.err != nil || w.doc == nil {
			if w.err == nil {
				w.err = errors.InternalError("extractor returned no document", nil)
			}
			stats.Failed++
			stats.Errors = append(stats.Errors, FileError{Path: w.key, Err: w.err})
			attrs := append([]slog.Attr{slog.String("path", w.key)}, errors.LogAttrs(w.err)...)
			s.logger.LogAttrs(ctx, slog.LevelWarn, "dropping file from cache", attrs...)
			continue
		}
		docs[w.key] = w.doc
		stats.Extracted++
	}

	// Files still on disk that failed to extract are counted as failed only.
	for key := range prevDocs {
		if _, ok := mtimes[key]; !ok {
			stats.Removed++
		}
	}

	next := &Generation{
		Documents:   docs,
		Index:       index.Build(docs),
		Fingerprint: fp,
		MTimes:      mtimes,
	}
	stats.Duration = time.Since(start)
	return next, stats, true, nil
}
