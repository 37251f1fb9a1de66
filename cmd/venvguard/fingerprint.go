// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/fingerprint"
	"github.com/venvguard/venvguard/internal/venv"
	"github.com/venvguard/venvguard/pkg/types"
)

func newFingerprintCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the fingerprint of this host",
		Long: `Print the fingerprint that identifies this host and interpreter:

  <system>-<release>-<interpreter path>

With --stored the fingerprint recorded in the environment is printed instead.`,
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

			if !stored {
				fp, err := b.Fingerprint(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, fp.String())
				return nil
			}

			fp, found, err := fingerprint.NewStore(app.fs, b.FingerprintPath()).Read()
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(app.stderr, styled(venv.LevelWarn, "No fingerprint recorded in ")+pathStyle.Render(b.FingerprintPath()))
				return silentExit(types.ExitFailure)
			}
			fmt.Fprintln(app.stdout, fp.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&stored, "stored", false, "print the recorded fingerprint instead of the current one")
	return cmd
}
