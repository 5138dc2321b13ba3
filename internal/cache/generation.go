// Package cache keeps the documentation of a Python source tree current.
//
// A single writer (ScanAndUpdate, usually driven by a Refresher) rescans the
// tree, re-extracts only files whose mtime changed, rebuilds the token index
// and publishes the result as one immutable Generation. Readers (Snapshot,
// Search, Document) take the current Generation under a read lock and work
// on it without further locking.
package cache

import (
	"time"

	"github.com/Aman-CERP/livedoc/internal/doc"
	"github.com/Aman-CERP/livedoc/internal/index"
)

// Generation is one internally consistent scan result.
// It is never modified after publication.
type Generation struct {
	Seq         uint64
	Documents   map[string]*doc.Document
	Index       *index.Index
	Fingerprint uint64
	MTimes      map[string]int64
	Timestamp   time.Time
}

// emptyGeneration is what readers see before the first scan.
func emptyGeneration() *Generation {
	return &Generation{
		Documents: map[string]*doc.Document{},
		Index:     index.Empty(),
		MTimes:    map[string]int64{},
	}
}

// Snapshot is a reader's copy of the published state. The maps are shallow
// copies; the Documents they point to are shared and must not be modified.
type Snapshot struct {
	Documents     map[string]*doc.Document
	Metadata      map[string]index.Metadata
	IndexKeyCount int
	LastUpdated   time.Time
	Generation    uint64
}

func (g *Generation) snapshot() Snapshot {
	docs := make(map[string]*doc.Document, len(g.Documents))
	for k, v := range g.Documents {
		docs[k] = v
	}
	meta := make(map[string]index.Metadata, len(g.Index.Metadata))
	for k, v := range g.Index.Metadata {
		meta[k] = v
	}
	return Snapshot{
		Documents:     docs,
		Metadata:      meta,
		IndexKeyCount: g.Index.TermCount(),
		LastUpdated:   g.Timestamp,
		Generation:    g.Seq,
	}
}

// Event announces a newly published generation.
type Event struct {
	Generation uint64    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
	Modules    int       `json:"modules"`
}
