package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/livedoc/internal/export"
	"github.com/Aman-CERP/livedoc/internal/output"
)

type exportOptions struct {
	format string
	output string
	title  string
}

func newExportCmd(a *app) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the documentation as Markdown, JSON or HTML",
		Long: `Scan a project once and export every documented module.

Without --output the export goes to stdout. An --output that names an
existing directory, or ends with a slash, gets one file per module.

Examples:
  livedoc export > API.md
  livedoc export --format html -o docs/index.html
  livedoc export ./src --format json -o build/docs/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "Export format: markdown, json, html")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file or directory (default: stdout)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title (default: project directory name)")

	return cmd
}

func (a *app) runExport(cmd *cobra.Command, args []string, opts exportOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	p, err := a.loadProject(args)
	if err != nil {
		return err
	}
	store, _, err := scanOnce(ctx, p, a.logger(cmd.ErrOrStderr(), p.cfg.Server.LogLevel))
	if err != nil {
		return err
	}
	docs := store.Snapshot().Documents

	title := opts.title
	if title == "" {
		title = filepath.Base(p.root) + " API"
	}

	if opts.output == "" {
		return export.Write(cmd.OutOrStdout(), format, docs, title)
	}

	// Status lines go to stderr so stdout stays clean for pipelines.
	out := output.New(cmd.ErrOrStderr())
	if isDirTarget(opts.output) {
		written, err := export.WriteDir(opts.output, format, docs)
		if err != nil {
			return err
		}
		out.Successf("Exported %d modules to %s", len(written), opts.output)
		return nil
	}
	if err := export.WriteFile(opts.output, format, docs, title); err != nil {
		return err
	}
	out.Successf("Exported %d modules to %s", len(docs), opts.output)
	return nil
}

func isDirTarget(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
