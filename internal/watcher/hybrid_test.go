package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func pyOnly(rel string) bool { return strings.HasSuffix(rel, ".py") }

// startWatcher runs w.Start in the background and returns a function that
// stops it and waits for Start to return.
func startWatcher(t *testing.T, w *HybridWatcher, root string) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx, root)
	}()
	// fsnotify needs the watches in place before the test writes files
	time.Sleep(100 * time.Millisecond)
	return func() {
		cancel()
		_ = w.Stop()
		<-done
	}
}

// waitFor drains batches until one contains path, or fails after timeout.
func waitFor(t *testing.T, w *HybridWatcher, path string) FileEvent {
	t.Helper()
	return waitForMatch(t, w, path, func(FileEvent) bool { return true })
}

func waitForMatch(t *testing.T, w *HybridWatcher, path string, match func(FileEvent) bool) FileEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events channel closed")
			for _, ev := range batch {
				if ev.Path == path && match(ev) {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event on %s", path)
		}
	}
}

func TestHybridWatcher_ReportsSourceChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a running watcher on a tree with one module
	root := t.TempDir()
	target := filepath.Join(root, "mod.py")
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))

	w, err := NewHybridWatcher(Options{DebounceWindow: 20 * time.Millisecond, Filter: pyOnly})
	require.NoError(t, err)
	stop := startWatcher(t, w, root)
	defer stop()

	// When: a new module is created
	require.NoError(t, os.WriteFile(filepath.Join(root, "new.py"), []byte("y = 2\n"), 0o644))

	// Then: it is reported
	ev := waitFor(t, w, "new.py")
	assert.False(t, ev.IsDir)

	// When: an existing module is edited
	require.NoError(t, os.WriteFile(target, []byte("x = 3\n"), 0o644))
	waitFor(t, w, "mod.py")

	// When: it is removed
	require.NoError(t, os.Remove(target))
	waitForMatch(t, w, "mod.py", func(ev FileEvent) bool { return ev.Operation == OpDelete })
}

func TestHybridWatcher_FiltersIrrelevantFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "__pycache__"), 0o755))

	w, err := NewHybridWatcher(Options{
		DebounceWindow: 20 * time.Millisecond,
		SkipDirs:       []string{"__pycache__"},
		Filter:         pyOnly,
	})
	require.NoError(t, err)
	stop := startWatcher(t, w, root)
	defer stop()

	// When: non-source and skipped files change, followed by a marker
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "__pycache__", "a.py"), []byte("n"), 0o644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker.py"), []byte("m"), 0o644))

	// Then: only the marker arrives
	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch := <-w.Events():
			for _, ev := range batch {
				assert.NotEqual(t, "notes.txt", ev.Path)
				assert.NotContains(t, ev.Path, "__pycache__")
				if ev.Path == "marker.py" {
					return
				}
			}
		case <-deadline:
			t.Fatal("timeout waiting for marker.py")
		}
	}
}

func TestHybridWatcher_GitignoreChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, err := NewHybridWatcher(Options{DebounceWindow: 20 * time.Millisecond, Filter: pyOnly})
	require.NoError(t, err)
	stop := startWatcher(t, w, root)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n"), 0o644))

	assert.Equal(t, OpGitignoreChange, waitFor(t, w, ".gitignore").Operation)
}

func TestHybridWatcher_WatchesNewSubdirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, err := NewHybridWatcher(Options{DebounceWindow: 20 * time.Millisecond, Filter: pyOnly})
	require.NoError(t, err)
	stop := startWatcher(t, w, root)
	defer stop()

	// Given: a directory created after the watcher started
	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitFor(t, w, "pkg")

	// When: a module is written inside it
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.py"), []byte("a = 1\n"), 0o644))

	// Then: the nested path is reported
	waitFor(t, w, "pkg/a.py")
}

func TestHybridWatcher_Start_MissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewHybridWatcher(Options{})
	require.NoError(t, err)

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	// Then: the watcher stopped itself and closed its channels
	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestHybridWatcher_Stop_Idempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewHybridWatcher(Options{})
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	_, ok := <-w.Errors()
	assert.False(t, ok)
	assert.Zero(t, w.DroppedBatches())
	assert.Contains(t, []string{"fsnotify", "polling"}, w.Mode())
}
