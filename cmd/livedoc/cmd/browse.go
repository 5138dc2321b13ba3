package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
	"github.com/Aman-CERP/livedoc/internal/ui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse documentation interactively in the terminal",
		Long: `Open a terminal browser over the live documentation cache.

Type to search, use the arrow keys to pick a result and Enter to open it.
The view follows file changes while it is open.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ui.CanBrowse(cmd.OutOrStdout()) {
				return docerrors.ValidationError("browse needs an interactive terminal", nil).
					WithSuggestion("Use 'livedoc search' or 'livedoc show' in scripts and CI")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			p, err := a.loadProject(args)
			if err != nil {
				return err
			}
			// The TUI owns the terminal, so only --debug logs anywhere.
			logger := a.fileLogger
			if logger == nil {
				logger = discardLogger()
			}
			store, sc, err := newStore(p, logger)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			runBackground(gctx, g, p, store, sc, true, logger)

			metrics := telemetry.New(telemetry.DefaultConfig())
			err = ui.RunBrowser(gctx, store, ui.BrowserOptions{
				NoColor: noColor || ui.DetectNoColor(),
				Metrics: metrics,
			})
			stats := metrics.Snapshot()
			logger.Debug("browser closed",
				slog.Int64("queries", stats.TotalQueries),
				slog.Int64("zero_result_queries", stats.ZeroResultCount))
			cancel()
			if werr := g.Wait(); err == nil {
				err = werr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")

	return cmd
}
