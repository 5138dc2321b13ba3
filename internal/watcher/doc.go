// Package watcher reports changes to Python sources under a project root.
//
// fsnotify is the primary mechanism; a polling watcher takes over where
// fsnotify cannot be created (network mounts, some containers). Events are
// debounced so an editor save or a git checkout arrives as one batch.
//
// The cache refresher treats a batch as a hint to rescan early. Its
// periodic tick still guarantees convergence when events are lost.
//
//	w, err := watcher.NewHybridWatcher(watcher.Options{Filter: sc.IsSource})
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Start(ctx, root) }()
//	for batch := range w.Events() {
//	    refresher.Trigger()
//	}
package watcher
