// Package preflight checks that livedoc can document and serve a project
// before a long-running command starts.
//
// The package validates:
//   - The root exists and is readable
//   - The configuration loads and validates
//   - Python sources are found under the root
//   - File descriptor and inotify watch limits leave room for the watcher
//   - The configured HTTP port is free
//   - The log directory is writable
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Target{Root: root, Config: cfg})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
