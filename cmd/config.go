package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/wmnctl/internal/config"
	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wmnctl configuration",
	Long: `Manage wmnctl configuration files and settings.

Examples:
  wmnctl config show                  # Show the effective configuration
  wmnctl config show --format toml    # Show it as TOML
  wmnctl config init                  # Write the defaults to .wmn.yml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after loading the config file, applying
environment variable overrides, setting default values and processing
command-line flags.

Examples:
  wmnctl config show                  # Show all configuration
  wmnctl config show --format json    # Show in JSON format`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write the default configuration as YAML to .wmn.yml, or to the file
named by --config. An existing file is left alone unless --force is given.`,
	// The file being created may not exist or parse yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		errConfigRead = nil
		return setup(cmd, args)
	},
	RunE: runConfigInit,
}

var (
	configFormat string
	configForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml",
		fmt.Sprintf("Output format (%s)", strings.Join(config.Formats, ", ")))
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out, err := config.Render(appConfig, configFormat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.FileName
	}

	exists, err := afero.Exists(appFs, path)
	if err != nil {
		return wmnerrors.NewFileError(wmnerrors.ErrCodeIO, "failed to check "+path, err).WithPath(path)
	}
	if exists && !configForce {
		return wmnerrors.NewFileError(wmnerrors.ErrCodeIO,
			"configuration file already exists (use --force to overwrite)", os.ErrExist).WithPath(path)
	}

	out, err := config.Render(config.Default(), "yaml")
	if err != nil {
		return err
	}
	if err := afero.WriteFile(appFs, path, []byte(out), 0o644); err != nil {
		return wmnerrors.NewFileError(wmnerrors.ErrCodeIO, "failed to write configuration", err).WithPath(path)
	}

	logger.Info(cmd.Context(), "Wrote default configuration", "path", path)
	return nil
}
