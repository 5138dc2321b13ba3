// Package cmd provides the CLI commands for livedoc.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/logging"
	"github.com/Aman-CERP/livedoc/internal/profiling"
	"github.com/Aman-CERP/livedoc/pkg/version"
)

// app carries the persistent flag values and the per-run resources they
// create. Each NewRootCmd gets its own.
type app struct {
	debug     bool
	configDir string
	profile   profiling.Options

	// fileLogger is set when --debug routes logs to the rotating file.
	fileLogger *slog.Logger
	profiler   *profiling.Profiler
	cleanups   []func()
}

// NewRootCmd creates the root command for the livedoc CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "livedoc",
		Short: "Live documentation cache for Python source trees",
		Long: `livedoc extracts documentation from Python sources without importing
them, keeps it fresh while files change, and serves it as a live web view,
an MCP server for AI assistants, a terminal browser or static exports.

Run 'livedoc serve' in a project to start the live view.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("livedoc version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.livedoc/logs/")
	cmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "Directory holding the user config.yaml (default $XDG_CONFIG_HOME/livedoc)")
	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Mem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = a.start
	cmd.PersistentPostRunE = a.stop

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newBrowseCmd(a))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newDoctorCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// start sets up debug logging and profiling if flags are set.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	if a.debug && cmd.Name() != "mcp" {
		cfg := logging.DebugConfig()
		cfg.WriteToStderr = false
		logger, cleanup, err := logging.Setup(cfg)
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		a.fileLogger = logger
		a.cleanups = append(a.cleanups, cleanup)
		logger.Info("debug logging enabled",
			slog.String("command", cmd.CommandPath()),
			slog.String("log_file", cfg.FilePath),
			slog.String("version", version.Version))
	}

	if a.profile.Enabled() {
		p, err := profiling.Start(a.profile, a.fileLogger)
		if err != nil {
			return err
		}
		a.profiler = p
	}
	return nil
}

// stop ends profiling and closes log files.
func (a *app) stop(_ *cobra.Command, _ []string) error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
		a.profiler = nil
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	return err
}

// logger returns the logger for commands that talk to a terminal: the debug
// file logger when --debug is set, otherwise a stderr text logger at level.
func (a *app) logger(stderr io.Writer, level string) *slog.Logger {
	if a.fileLogger != nil {
		return a.fileLogger
	}
	return logging.NewConsole(stderr, level)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the root command and prints failures in CLI form.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		if docerrors.GetCode(err) != "" {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), docerrors.FormatForCLI(err))
		} else {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	return err
}
