// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/issue"
	"github.com/venvguard/venvguard/internal/runtime"
	"github.com/venvguard/venvguard/internal/venv"
)

func newRunCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -- <program> [args...]",
		Short: "Bootstrap the environment, then run a program inside it",
		Long: `Bootstrap the environment, then run a program with the environment active.

The environment's bin directory is put first on PATH and VIRTUAL_ENV is set,
so "python" and console scripts installed from the manifest resolve to the
environment. The program's exit code becomes venvguard's exit code.`,
		Example: `  venvguard run -- python app.py
  venvguard run -- pytest -x`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.openSession(ctx, cmd, flags)
			if err != nil {
				return err
			}
			b, err := app.bootstrapper(s)
			if err != nil {
				return err
			}
			if _, err := app.bootstrap(ctx, s, b); err != nil {
				return err
			}

			program := args[0]
			fmt.Fprintf(app.stdout, "Starting %s...\n", program)

			env, err := b.Activate(app.environ())
			if err != nil {
				return err
			}
			path := app.programPath(b, program)

			res := app.runnerFor(s).Run(ctx, runtime.Invocation{Name: path, Args: args[1:], Env: env})
			if res.Error != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return issue.NewErrorContext().
					WithOperation("start program").
					WithResource(program).
					WithIssue(issue.ProgramNotFoundId).
					WithSuggestion("Check that the program is installed in the environment or on your PATH").
					WithSuggestion("Add the package that provides it to " + string(s.cfg.Manifest)).
					Wrap(res.Error).
					BuildError()
			}
			if !res.ExitCode.IsSuccess() {
				return silentExit(res.ExitCode)
			}
			return nil
		},
	}
	// Everything after the program name belongs to the program.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// programPath prefers an executable inside the environment over one found
// on the inherited PATH. Names containing a separator are used as given.
func (a *App) programPath(b *venv.Bootstrapper, program string) string {
	if strings.ContainsAny(program, `/\`) {
		return program
	}
	candidate := b.BinPath(program)
	if info, err := a.fs.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	lookPath := a.resolver.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if found, err := lookPath(program); err == nil {
		return found
	}
	return program
}
