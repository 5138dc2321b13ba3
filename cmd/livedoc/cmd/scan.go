package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/livedoc/internal/output"
	"github.com/Aman-CERP/livedoc/internal/ui"
)

func newScanCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan once and report what was extracted",
		Long: `Run a single refresh cycle over a Python project and print statistics.

Files that cannot be read or parsed are skipped and listed; they never
fail the scan.

Examples:
  livedoc scan
  livedoc scan ./src --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			p, err := a.loadProject(args)
			if err != nil {
				return err
			}
			logger := a.logger(cmd.ErrOrStderr(), p.cfg.Server.LogLevel)

			store, changed, err := scanOnce(ctx, p, logger)
			if err != nil {
				return err
			}

			gen := store.Current()
			summary := ui.ScanSummary{
				Root:       p.root,
				Generation: gen.Seq,
				Modules:    len(gen.Documents),
				IndexKeys:  gen.Index.TermCount(),
				Changed:    changed,
				Stats:      store.LastStats(),
			}
			logger.Debug("scan finished",
				slog.Uint64("generation", gen.Seq),
				slog.Int("modules", summary.Modules),
				slog.Int("failed", summary.Stats.Failed))

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(summary)
			}
			ui.RenderScanSummary(out.Out(), summary, out.Styles(), ui.IsTTY(out.Out()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}
