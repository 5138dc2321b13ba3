package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/livedoc/internal/config"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage livedoc configuration",
		Long: `Manage livedoc configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/livedoc/config.yaml)
  3. Project config (.livedoc.yaml)
  4. .env in the project root
  5. Environment variables (LIVEDOC_*)`,
		Example: `  # Write a starter .livedoc.yaml in the project root
  livedoc config init

  # Show effective configuration
  livedoc config show --json`,
	}

	cmd.AddCommand(newConfigInitCmd(a))
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigPathCmd(a))

	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a configuration file with default values",
		Long: `Write the default configuration to .livedoc.yaml in the project root,
or to the user config file with --user.

An existing file is only replaced with --force, after a timestamped backup.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := a.userConfigPath()
			if !user {
				root, err := resolveRoot(args)
				if err != nil {
					return err
				}
				if info, err := os.Stat(root); err == nil && !info.IsDir() {
					root = filepath.Dir(root)
				}
				target = filepath.Join(root, config.ProjectConfigNames[0])
			}
			return runConfigInit(cmd, target, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

func runConfigInit(cmd *cobra.Command, target string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(target); err == nil {
		if !force {
			return docerrors.New(docerrors.ErrCodeInvalidInput, "config already exists: "+target, nil).
				WithSuggestion("Use --force to overwrite it")
		}
		backup, err := config.BackupFile(target)
		if err != nil {
			return err
		}
		if backup != "" {
			out.Statusf("", "Backed up existing config to %s", backup)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return docerrors.New(docerrors.ErrCodeWriteFailed, "cannot create "+filepath.Dir(target), err)
	}
	if err := config.NewConfig().WriteYAML(target); err != nil {
		return err
	}
	out.Successf("Created %s", target)
	return nil
}

func newConfigShowCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show effective configuration",
		Long:  `Show the configuration after merging every source for the project.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args)
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(p.cfg)
			}
			data, err := yaml.Marshal(p.cfg)
			if err != nil {
				return docerrors.InternalError("failed to marshal config", err)
			}
			_, err = out.Out().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path [path]",
		Short: "Print configuration file locations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			project := config.ProjectConfigPath(root)
			if project == "" {
				project = "(none)"
			}
			output.New(cmd.OutOrStdout()).KeyValues([][2]string{
				{"user", a.userConfigPath()},
				{"project", project},
			})
			return nil
		},
	}
}
