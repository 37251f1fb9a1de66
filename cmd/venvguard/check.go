// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/venv"
	"github.com/venvguard/venvguard/pkg/types"
)

func newCheckCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the environment matches this host",
		Long: `Compare the recorded fingerprint with this host without changing anything.

Exits 0 when the environment is compatible and 1 when it would be rebuilt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := app.openSession(ctx, cmd, flags)
			if err != nil {
				return err
			}
			b, err := app.bootstrapper(s)
			if err != nil {
				return err
			}

			ok, err := b.IsCompatible(ctx)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(app.stdout, styled(venv.LevelSuccess, "compatible"))
				return nil
			}
			fmt.Fprintln(app.stdout, styled(venv.LevelWarn, "incompatible"))
			return silentExit(types.ExitFailure)
		},
	}
}
