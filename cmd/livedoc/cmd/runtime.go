package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/config"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/extract"
	"github.com/Aman-CERP/livedoc/internal/scanner"
	"github.com/Aman-CERP/livedoc/internal/watcher"
)

// project is a resolved root with its effective configuration.
type project struct {
	root  string
	isDir bool
	cfg   *config.Config
}

// resolveRoot picks the documented root: the explicit argument, or the
// project root above the working directory.
func resolveRoot(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return config.FindProjectRoot(".")
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return "", docerrors.New(docerrors.ErrCodeInvalidPath, "invalid path "+args[0], err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", docerrors.New(docerrors.ErrCodeRootNotFound, "root not found: "+args[0], err).
			WithDetail("path", abs).
			WithSuggestion("Pass an existing directory or .py file")
	}
	return abs, nil
}

// userConfigPath honours --config-dir.
func (a *app) userConfigPath() string {
	if a.configDir != "" {
		return filepath.Join(a.configDir, "config.yaml")
	}
	return config.GetUserConfigPath()
}

// loadProject resolves the root and loads its configuration. A single file
// root reads project config from its directory.
func (a *app) loadProject(args []string) (*project, error) {
	root, err := resolveRoot(args)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeRootNotFound, "root not found: "+root, err)
	}
	dir := root
	if !info.IsDir() {
		dir = filepath.Dir(root)
	}
	cfg, err := config.LoadWithUserConfig(dir, a.userConfigPath())
	if err != nil {
		return nil, err
	}
	return &project{root: root, isDir: info.IsDir(), cfg: cfg}, nil
}

// newScanner builds the scanner from path settings.
func newScanner(cfg *config.Config, logger *slog.Logger) (*scanner.Scanner, error) {
	return scanner.New(scanner.Options{
		ExcludeDirs:      cfg.Paths.ExcludeDirs,
		Exclude:          cfg.Paths.Exclude,
		Extensions:       cfg.Paths.Extensions,
		RespectGitignore: cfg.Paths.RespectGitignore,
		Logger:           logger,
	})
}

// newStore builds an unscanned store for p.
func newStore(p *project, logger *slog.Logger) (*cache.Store, *scanner.Scanner, error) {
	sc, err := newScanner(p.cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ex := extract.New(extract.Options{
		IncludePrivate: p.cfg.Extract.IncludePrivate,
		Style:          p.cfg.Extract.DocstringStyle,
	})
	store, err := cache.New(cache.Options{
		Root:           p.root,
		Workers:        p.cfg.Cache.Workers,
		SearchLimit:    p.cfg.Cache.SearchLimit,
		QueryCacheSize: p.cfg.Cache.QueryCacheSize,
		Logger:         logger,
	}, ex, sc)
	if err != nil {
		return nil, nil, err
	}
	return store, sc, nil
}

// scanOnce builds a store and runs a single refresh cycle. changed is false
// when the root holds no source files.
func scanOnce(ctx context.Context, p *project, logger *slog.Logger) (store *cache.Store, changed bool, err error) {
	store, _, err = newStore(p, logger)
	if err != nil {
		return nil, false, err
	}
	changed, err = store.ScanAndUpdate(ctx)
	if err != nil {
		return nil, false, err
	}
	return store, changed, nil
}

// runBackground runs the refresher, plus the watcher when enabled, until
// ctx is done. The first scan starts immediately.
func runBackground(ctx context.Context, g *errgroup.Group, p *project, store *cache.Store, sc *scanner.Scanner, watch bool, logger *slog.Logger) {
	refresher := cache.NewRefresher(store, p.cfg.Cache.RescanInterval, logger)

	if watch && p.cfg.Watch.Enabled && p.isDir {
		w, err := watcher.NewHybridWatcher(watcher.Options{
			DebounceWindow: p.cfg.Watch.Debounce,
			PollInterval:   p.cfg.Watch.PollInterval,
			SkipDirs:       p.cfg.Paths.ExcludeDirs,
			Filter:         sc.IsSource,
			Logger:         logger,
		})
		if err != nil {
			logger.Warn("watcher disabled", slog.String("error", err.Error()))
		} else {
			refresher.WithEvents(w.Events())
			g.Go(func() error {
				if err := w.Start(ctx, p.root); err != nil && ctx.Err() == nil {
					logger.Warn("watcher stopped, relying on periodic rescans",
						slog.String("error", err.Error()))
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				_ = w.Stop()
				return nil
			})
			logger.Debug("watching for changes", slog.String("mode", w.Mode()))
		}
	}

	g.Go(func() error {
		return refresher.Run(ctx)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
