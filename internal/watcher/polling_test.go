package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func collectUntil(t *testing.T, ch <-chan FileEvent, path string, op Operation) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "events channel closed")
			if ev.Path == path && ev.Operation == op {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s", op, path)
		}
	}
}

func TestPollingWatcher_DetectsChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a polling watcher over a tree with one file
	root := t.TempDir()
	target := filepath.Join(root, "a.py")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o644))

	p := NewPollingWatcher(20*time.Millisecond, Options{SkipDirs: []string{".venv"}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx, root) }()
	time.Sleep(50 * time.Millisecond)

	// When: files are created, modified and deleted
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("b"), 0o644))
	collectUntil(t, p.Events(), "b.py", OpCreate)

	require.NoError(t, os.WriteFile(target, []byte("a changed"), 0o644))
	collectUntil(t, p.Events(), "a.py", OpModify)

	require.NoError(t, os.Remove(target))
	collectUntil(t, p.Events(), "a.py", OpDelete)

	// Then: cancelling stops it
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	_, ok := <-p.Events()
	assert.False(t, ok)
}

func TestPollingWatcher_SkipsDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".venv"), 0o755))

	p := NewPollingWatcher(20*time.Millisecond, Options{SkipDirs: []string{".venv"}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx, root) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".venv", "site.py"), []byte("s"), 0o644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker.py"), []byte("m"), 0o644))

	deadline := time.After(3 * time.Second)
loop:
	for {
		select {
		case ev := <-p.Events():
			assert.NotEqual(t, ".venv/site.py", ev.Path)
			if ev.Path == "marker.py" {
				break loop
			}
		case <-deadline:
			t.Fatal("timeout waiting for marker.py")
		}
	}

	cancel()
	<-done
}

func TestPollingWatcher_Start_InvalidPath(t *testing.T) {
	p := NewPollingWatcher(time.Second, Options{})
	err := p.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	require.NoError(t, p.Stop())
}
