package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/livedoc/internal/cache"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	page   int
	format string // "text", "json"
	path   string
}

// searchReport is the --format json payload.
type searchReport struct {
	Query   string         `json:"query"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Results []cache.Result `json:"results"`
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search module, class and function documentation",
		Long: `Search the documentation of a Python project.

Every query word must match a name or summary word, exactly or through its
six-character prefix. An empty query lists the documented modules.

Examples:
  livedoc search "load config"
  livedoc search parser --limit 5 --page 2
  livedoc search retry --format json --path ./src`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results per page")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Result page, starting at 1")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.path, "path", "", "Project root or file (default: detected project root)")

	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return docerrors.New(docerrors.ErrCodeInvalidFormat, fmt.Sprintf("unknown output format %q", opts.format), nil).
			WithSuggestion("use --format text or --format json")
	}
	if opts.limit < 1 || opts.page < 1 {
		return docerrors.ValidationError("limit and page must be positive", nil)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	p, err := a.loadProject(pathArgs(opts.path))
	if err != nil {
		return err
	}
	store, _, err := scanOnce(ctx, p, a.logger(cmd.ErrOrStderr(), p.cfg.Server.LogLevel))
	if err != nil {
		return err
	}

	query = strings.TrimSpace(query)
	results := store.Search(query, opts.limit, opts.page)

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.JSON(searchReport{Query: query, Page: opts.page, Limit: opts.limit, Results: results})
	}
	printResults(out, query, results, (opts.page-1)*opts.limit)
	return nil
}

func printResults(out *output.Writer, query string, results []cache.Result, offset int) {
	styles := out.Styles()
	if len(results) == 0 {
		if query == "" {
			out.Status("", "No documented modules found")
		} else {
			out.Statusf("", "No results for %q", query)
		}
		return
	}

	for i, r := range results {
		_, _ = fmt.Fprintf(out.Out(), "%s %s %s\n",
			styles.Dim.Render(fmt.Sprintf("%3d.", offset+i+1)),
			styles.Active.Render(r.FQN),
			styles.Kind.Render(string(r.Type)))
		loc := r.File
		if query != "" {
			loc = fmt.Sprintf("%s  score %d", r.File, r.Score)
		}
		_, _ = fmt.Fprintf(out.Out(), "     %s\n", styles.Dim.Render(loc))
		if r.Snippet != "" {
			_, _ = fmt.Fprintf(out.Out(), "     %s\n", r.Snippet)
		}
	}
}

// pathArgs adapts a --path flag to the positional form resolveRoot takes.
func pathArgs(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}
