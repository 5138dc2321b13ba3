package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/livedoc/internal/output"
	"github.com/Aman-CERP/livedoc/internal/server"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
	"github.com/Aman-CERP/livedoc/pkg/version"
)

type serveOptions struct {
	host    string
	port    int
	noWatch bool
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve live documentation over HTTP",
		Long: `Serve the documentation of a Python project over HTTP.

The cache is rescanned every few seconds and whenever a watched file
changes. Open the printed address in a browser; the page follows every
new generation over a websocket.

Examples:
  livedoc serve
  livedoc serve ./src --port 8080
  livedoc serve app.py --no-watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return a.runServe(ctx, cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (default from config, 127.0.0.1)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Listen port (default from config, 5000)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Disable the file watcher and rely on periodic rescans")

	return cmd
}

func (a *app) runServe(ctx context.Context, cmd *cobra.Command, args []string, opts serveOptions) error {
	p, err := a.loadProject(args)
	if err != nil {
		return err
	}
	if opts.host != "" {
		p.cfg.Server.Host = opts.host
	}
	if cmd.Flags().Changed("port") {
		p.cfg.Server.Port = opts.port
	}
	logger := a.logger(cmd.ErrOrStderr(), p.cfg.Server.LogLevel)

	store, sc, err := newStore(p, logger)
	if err != nil {
		return err
	}
	metrics := telemetry.New(telemetry.DefaultConfig())
	srv, err := server.New(store, server.Options{
		Host:    p.cfg.Server.Host,
		Port:    p.cfg.Server.Port,
		Version: version.Version,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(p.cfg.Server.Host, strconv.Itoa(p.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("Serving %s at http://%s", p.root, ln.Addr().String())
	out.Status("", "Press Ctrl+C to stop")

	g, gctx := errgroup.WithContext(ctx)
	runBackground(gctx, g, p, store, sc, !opts.noWatch, logger)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	err = g.Wait()
	stats := metrics.Snapshot()
	logger.Info("server stopped",
		slog.String("root", p.root),
		slog.Int64("queries", stats.TotalQueries),
		slog.Int64("zero_result_queries", stats.ZeroResultCount))
	return err
}
