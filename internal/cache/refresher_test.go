package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Aman-CERP/livedoc/internal/scanner"
	"github.com/Aman-CERP/livedoc/internal/watcher"
)

func waitForGeneration(t *testing.T, s *Store, atLeast uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().Generation >= atLeast
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRefresher_ScansOnStartAndTrigger(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a refresher with a tick far in the future
	root := t.TempDir()
	writePy(t, root, "a.py", "x = 1\n")
	s := newTestStore(t, root, newCountingExtractor())
	r := NewRefresher(s, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Then: the first scan happens immediately
	waitForGeneration(t, s, 1)

	// When: a file changes and a rescan is triggered
	writePy(t, root, "b.py", "y = 2\n")
	r.Trigger()
	r.Trigger()

	// Then: the change is published without waiting for the tick
	waitForGeneration(t, s, 2)
	_, ok := s.Document("b.py")
	assert.True(t, ok)

	cancel()
	assert.NoError(t, <-done)
}

func TestRefresher_Tick(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writePy(t, root, "a.py", "x = 1\n")
	s := newTestStore(t, root, newCountingExtractor())
	r := NewRefresher(s, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	waitForGeneration(t, s, 1)

	writePy(t, root, "b.py", "y = 2\n")
	waitForGeneration(t, s, 2)

	cancel()
	assert.NoError(t, <-done)
}

func TestRefresher_WatcherBatchWakesAndInvalidatesGitignore(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a gitignore-aware store
	root := t.TempDir()
	writePy(t, root, "a.py", "x = 1\n")
	writePy(t, root, "b.py", "y = 1\n")
	sc, err := scanner.New(scanner.Options{RespectGitignore: true})
	require.NoError(t, err)
	s, err := New(Options{Root: root}, newCountingExtractor(), sc)
	require.NoError(t, err)

	events := make(chan []watcher.FileEvent, 1)
	r := NewRefresher(s, time.Hour, nil).WithEvents(events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	waitForGeneration(t, s, 1)
	require.Len(t, s.Snapshot().Documents, 2)

	// When: a .gitignore appears and the watcher reports it
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("b.py\n"), 0o644))
	events <- []watcher.FileEvent{{Path: ".gitignore", Operation: watcher.OpGitignoreChange}}

	// Then: the ignored module disappears
	waitForGeneration(t, s, 2)
	_, ok := s.Document("b.py")
	assert.False(t, ok)

	// And: a closed event channel does not stop the refresher
	close(events)
	writePy(t, root, "c.py", "z = 1\n")
	r.Trigger()
	waitForGeneration(t, s, 3)

	cancel()
	assert.NoError(t, <-done)
}

func TestRefresher_FailedCycleKeepsRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := filepath.Join(t.TempDir(), "later")
	s := newTestStore(t, root, newCountingExtractor())
	r := NewRefresher(s, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// the root is missing at first, so nothing is published
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, s.Snapshot().Generation)

	writePy(t, root, "a.py", "x = 1\n")
	r.Trigger()
	waitForGeneration(t, s, 1)

	cancel()
	assert.NoError(t, <-done)
}
