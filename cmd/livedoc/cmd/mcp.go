package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/livedoc/internal/logging"
	"github.com/Aman-CERP/livedoc/internal/mcp"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
	"github.com/Aman-CERP/livedoc/pkg/version"
)

func newMCPCmd(a *app) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "mcp [path]",
		Short: "Serve documentation to AI assistants over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: search_docs, get_module, list_modules, cache_status.
Every documented module is also exposed as a doc://module/<path> resource.

stdout is reserved for JSON-RPC; logs go to ~/.livedoc/logs/livedoc.log.

Example client configuration:
  {"command": "livedoc", "args": ["mcp", "/path/to/project"]}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return a.runMCP(ctx, args, noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the file watcher and rely on periodic rescans")

	return cmd
}

func (a *app) runMCP(ctx context.Context, args []string, noWatch bool) error {
	p, err := a.loadProject(args)
	if err != nil {
		return err
	}

	level := p.cfg.Server.LogLevel
	if a.debug {
		level = "debug"
	}
	logger, cleanup, err := logging.SetupMCPMode(level)
	if err != nil {
		return err
	}
	defer cleanup()

	store, sc, err := newStore(p, logger)
	if err != nil {
		return err
	}
	srv, err := mcp.NewServer(store, mcp.Options{
		Version: version.Version,
		Logger:  logger,
		Metrics: telemetry.New(telemetry.DefaultConfig()),
	})
	if err != nil {
		return err
	}
	info := srv.Project()
	logger.Info("mcp project detected",
		slog.String("name", info.Name),
		slog.String("root", info.RootPath),
		slog.String("source", info.Source))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	runBackground(gctx, g, p, store, sc, !noWatch, logger)
	g.Go(func() error {
		// A closed stdin ends the session and with it the refresher.
		defer cancel()
		return srv.Run(gctx)
	})
	return g.Wait()
}
