package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/livedoc/internal/doc"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/export"
	"github.com/Aman-CERP/livedoc/internal/ui"
)

type showOptions struct {
	path  string
	raw   bool
	width int
}

func newShowCmd(a *app) *cobra.Command {
	var opts showOptions

	cmd := &cobra.Command{
		Use:   "show <module>",
		Short: "Render one module's documentation in the terminal",
		Long: `Render the documentation of a single module.

The module may be given as a relative path (pkg/util.py) or a dotted name
(pkg.util).

Examples:
  livedoc show pkg/util.py
  livedoc show pkg.util --raw > util.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "Project root (default: detected project root)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print Markdown source instead of rendering it")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Wrap width for rendered output (default 80)")

	return cmd
}

func (a *app) runShow(cmd *cobra.Command, module string, opts showOptions) error {
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

	d, ok := lookupModule(store.Snapshot().Documents, module)
	if !ok {
		return docerrors.New(docerrors.ErrCodeModuleNotFound, fmt.Sprintf("module not found: %s", module), nil).
			WithDetail("module", module).
			WithSuggestion("Run 'livedoc search' with an empty query to list modules")
	}

	md := export.Module(d)
	w := cmd.OutOrStdout()
	if opts.raw || !ui.IsTTY(w) {
		_, err := fmt.Fprint(w, md)
		return err
	}
	rendered, err := ui.RenderMarkdown(md, opts.width, !ui.UseColor(w, false))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}

// lookupModule resolves a module by path key, or by dotted name when no
// path matches.
func lookupModule(docs map[string]*doc.Document, name string) (*doc.Document, bool) {
	if d, ok := docs[doc.ModuleKey(name)]; ok {
		return d, true
	}
	if strings.HasSuffix(name, ".py") {
		return nil, false
	}

	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if doc.ModuleName(k) == name {
			return docs[k], true
		}
	}
	return nil, false
}
