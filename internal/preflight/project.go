package preflight

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/Aman-CERP/livedoc/internal/config"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/scanner"
)

// CheckRoot checks that root exists and can be listed or read.
func (c *Checker) CheckRoot(root string) CheckResult {
	result := CheckResult{
		Name:     "root",
		Required: true,
	}

	info, err := os.Stat(root)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", root, err)
		return result
	}

	if info.IsDir() {
		_, err = os.ReadDir(root)
	} else {
		var f *os.File
		if f, err = os.Open(root); err == nil {
			_ = f.Close()
		}
	}
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not readable", root)
		result.Details = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = root
	if !info.IsDir() {
		result.Details = "single file root; the watcher is disabled"
	}
	return result
}

// CheckConfig reports whether the configuration loaded and validated.
func (c *Checker) CheckConfig(cfg *config.Config, loadErr error) CheckResult {
	result := CheckResult{
		Name:     "config",
		Required: true,
	}

	if loadErr != nil {
		result.Status = StatusFail
		result.Message = "configuration is invalid"
		result.Details = loadErr.Error()
		if code := docerrors.GetCode(loadErr); code != "" {
			result.Details = code + ": " + result.Details
		}
		return result
	}
	if cfg == nil {
		result.Status = StatusPass
		result.Message = "defaults"
		return result
	}
	if err := cfg.Validate(); err != nil {
		result.Status = StatusFail
		result.Message = "configuration is invalid"
		result.Details = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("valid (docstring style %s, rescan every %s)",
		cfg.Extract.DocstringStyle, cfg.Cache.RescanInterval)
	return result
}

// CheckSources enumerates the files that would be documented. It also
// returns the number of directories holding them, for the watch check.
func (c *Checker) CheckSources(ctx context.Context, root string, cfg *config.Config) (CheckResult, int) {
	result := CheckResult{
		Name: "sources",
	}

	sc, err := scanner.New(scanner.Options{
		ExcludeDirs:      cfg.Paths.ExcludeDirs,
		Exclude:          cfg.Paths.Exclude,
		Extensions:       cfg.Paths.Extensions,
		RespectGitignore: cfg.Paths.RespectGitignore,
	})
	if err != nil {
		result.Status = StatusFail
		result.Message = "cannot build scanner"
		result.Details = err.Error()
		return result, 0
	}

	files, err := sc.Enumerate(ctx, root)
	if err != nil {
		result.Status = StatusFail
		result.Message = "cannot enumerate sources"
		result.Details = err.Error()
		return result, 0
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		dirs[path.Dir(f.Path)] = struct{}{}
	}

	if len(files) == 0 {
		result.Status = StatusWarn
		result.Message = "no source files found"
		result.Details = fmt.Sprintf("extensions %v; check paths.exclude and .gitignore", cfg.Paths.Extensions)
		return result, 0
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d files in %d directories", len(files), len(dirs))
	return result, len(dirs)
}
