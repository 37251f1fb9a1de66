// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/config"
	"github.com/venvguard/venvguard/internal/venv"
)

// newConfigCommand creates the `venvguard config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage venvguard configuration",
		Long: `Manage venvguard configuration.

Settings are merged from, lowest to highest precedence:
  - built-in defaults
  - the [tool.venvguard] table of pyproject.toml
  - venvguard.cue (or the file given with --config)
  - VENVGUARD_* environment variables (e.g. VENVGUARD_ENV_DIR)
  - command-line flags`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.openSession(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}

			fmt.Fprintln(app.stdout, headingStyle.Render("Current Configuration"))
			fmt.Fprintln(app.stdout)
			fmt.Fprintf(app.stdout, "%s: %s\n", pathStyle.Render("pyproject.toml"), sourceLabel(s.sources.Pyproject))
			fmt.Fprintf(app.stdout, "%s: %s\n", pathStyle.Render("Config file"), sourceLabel(s.sources.ConfigFile))
			fmt.Fprintln(app.stdout)
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to " + config.ConfigFileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configPath
			if path == "" {
				path = config.ConfigFileName
			}
			if err := config.WriteDefault(app.fs, path, force); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", mark(venv.LevelSuccess), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func sourceLabel(path string) string {
	if strings.TrimSpace(path) == "" {
		return dimStyle.Render("(not used)")
	}
	return styled(venv.LevelSuccess, path)
}
