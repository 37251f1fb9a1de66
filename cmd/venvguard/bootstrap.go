// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

func newBootstrapCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Check, rebuild if needed, install and verify the environment",
		Long: `Run the full bootstrap sequence.

The recorded fingerprint is compared with this host. On a mismatch the
environment directory is removed and recreated with the interpreter's venv
module. Dependencies from the manifest are then installed and the required
modules are imported once; a failed import triggers one reinstall.

This is also what venvguard does when run without a subcommand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runBootstrap(cmd, flags)
		},
	}
}

func (a *App) runBootstrap(cmd *cobra.Command, flags *rootFlagValues) error {
	ctx := cmd.Context()
	s, err := a.openSession(ctx, cmd, flags)
	if err != nil {
		return err
	}
	b, err := a.bootstrapper(s)
	if err != nil {
		return err
	}
	_, err = a.bootstrap(ctx, s, b)
	return err
}
