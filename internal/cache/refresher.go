package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/livedoc/internal/watcher"
)

// DefaultRescanInterval is the refresher tick.
const DefaultRescanInterval = 2 * time.Second

// Refresher is the single writer of a Store. It rescans on every tick and
// whenever Trigger is called or a watcher batch arrives.
type Refresher struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	wake     chan struct{}
	events   <-chan []watcher.FileEvent
}

// NewRefresher creates a refresher for store. interval <= 0 uses
// DefaultRescanInterval.
func NewRefresher(store *Store, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRescanInterval
	}
	if logger == nil {
		logger = store.logger
	}
	return &Refresher{
		store:    store,
		interval: interval,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// WithEvents makes watcher batches wake the refresher early.
// .gitignore edits also drop the scanner's cached rules.
func (r *Refresher) WithEvents(events <-chan []watcher.FileEvent) *Refresher {
	r.events = events
	return r
}

// Trigger requests a rescan without waiting for the next tick.
// Requests made while one is pending are merged.
func (r *Refresher) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run scans immediately and then on every wakeup until ctx is done.
// Failed cycles are logged and retried on the next wakeup.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.cycle(ctx)
	events := r.events
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.cycle(ctx)
		case <-r.wake:
			r.cycle(ctx)
		case batch, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.handleBatch(batch)
			r.cycle(ctx)
		}
	}
}

func (r *Refresher) handleBatch(batch []watcher.FileEvent) {
	for _, ev := range batch {
		if ev.Operation == watcher.OpGitignoreChange {
			r.store.InvalidateGitignoreCache()
			break
		}
	}
	r.logger.Debug("watcher batch", slog.Int("events", len(batch)))
}

func (r *Refresher) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.store.ScanAndUpdate(ctx); err != nil && ctx.Err() == nil {
		r.logger.Debug("refresh cycle skipped", slog.String("error", err.Error()))
	}
}
