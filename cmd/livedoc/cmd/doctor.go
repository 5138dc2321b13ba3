package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/livedoc/internal/config"
	"github.com/Aman-CERP/livedoc/internal/output"
	"github.com/Aman-CERP/livedoc/internal/preflight"
)

func newDoctorCmd(a *app) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Check the project and system and diagnose issues",
		Long: `Run diagnostics to ensure livedoc can document a project.

Checks:
  - Root exists and is readable
  - Configuration loads and validates
  - Source files are found
  - File descriptor limit (1024 minimum)
  - inotify watch limit (Linux)
  - HTTP port is free
  - Log directory is writable

Only the root and configuration checks are critical.`,
		Example: `  # Run diagnostics for the current project
  livedoc doctor

  # Verbose output with details
  livedoc doctor --verbose

  # JSON output for scripting
  livedoc doctor ./src --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd, args, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// doctorReport is the --json output.
type doctorReport struct {
	Root   string                  `json:"root"`
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func (a *app) runDoctor(cmd *cobra.Command, args []string, verbose, jsonOutput bool) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	target := a.doctorTarget(args)

	out := output.New(cmd.OutOrStdout())
	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(out.Out()),
	)
	results := checker.RunAll(ctx, target)

	if jsonOutput {
		if err := out.JSON(doctorReport{
			Root:   target.Root,
			Status: checker.SummaryStatus(results),
			Checks: results,
		}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return &doctorError{message: "system check failed"}
	}
	return nil
}

// doctorTarget resolves what to check without failing: a missing root or
// broken config is reported by the checks themselves.
func (a *app) doctorTarget(args []string) preflight.Target {
	var root string
	if len(args) > 0 && args[0] != "" {
		root = args[0]
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	} else {
		found, err := config.FindProjectRoot(".")
		if err != nil {
			found, _ = os.Getwd()
		}
		root = found
	}

	dir := root
	if info, err := os.Stat(root); err != nil {
		return preflight.Target{Root: root}
	} else if !info.IsDir() {
		dir = filepath.Dir(root)
	}

	cfg, err := config.LoadWithUserConfig(dir, a.userConfigPath())
	return preflight.Target{Root: root, Config: cfg, ConfigErr: err}
}

// doctorError marks a failed system check; the report has already been
// printed.
type doctorError struct {
	message string
}

func (e *doctorError) Error() string {
	return e.message
}
