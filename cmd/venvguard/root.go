// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/config"
)

const (
	flagConfig      = "config"
	flagVerbose     = "verbose"
	flagEnvDir      = "env-dir"
	flagManifest    = "manifest"
	flagInterpreter = "interpreter"
	flagStrict      = "strict"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath  string
	verbose     bool
	envDir      string
	manifest    string
	interpreter string
	strict      bool
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

func newRootCommand(app *App, flags *rootFlagValues) *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Keep a Python virtual environment in sync with the host",
		Long: headingStyle.Render(config.AppName) + dimStyle.Render(" - Keep a Python virtual environment in sync with the host") + `

venvguard makes sure the project's virtual environment was built on this
operating system, kernel release and interpreter. When the recorded
fingerprint does not match, the environment is removed and recreated,
requirements.txt is installed, and the required modules are verified.

` + dimStyle.Render("Examples:") + `
  venvguard                 Bootstrap the environment in the current directory
  venvguard check           Exit 1 when the environment needs rebuilding
  venvguard run -- pytest   Bootstrap, then run pytest inside the environment
  venvguard watch           Re-bootstrap whenever requirements.txt changes
  venvguard config show     Show the effective configuration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runBootstrap(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, flagConfig, "", "config file (default is ./"+config.ConfigFileName+" when present)")
	pf.BoolVarP(&flags.verbose, flagVerbose, "v", false, "enable verbose output")
	pf.StringVar(&flags.envDir, flagEnvDir, string(config.DefaultEnvDir), "virtual environment directory")
	pf.StringVar(&flags.manifest, flagManifest, string(config.DefaultManifest), "requirements file to install")
	pf.StringVar(&flags.interpreter, flagInterpreter, "", "Python interpreter used to create the environment")
	pf.BoolVar(&flags.strict, flagStrict, false, "fail when an external tool fails instead of warning")

	root.AddCommand(
		newBootstrapCommand(app, flags),
		newCheckCommand(app, flags),
		newFingerprintCommand(app, flags),
		newRunCommand(app, flags),
		newWatchCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return root
}

// Execute runs the CLI against the real process and exits with its code.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI with os.Args and returns the exit code.
func Main() int {
	return NewApp(Dependencies{}).Execute(context.Background(), os.Args[1:])
}

// Execute runs the command tree with args and maps the outcome to an exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	flags := &rootFlagValues{}
	root := newRootCommand(a, flags)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetIn(a.stdin)

	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			a.writeError(w, err, a.verbose || flags.verbose)
		}),
	)
	return processExitCode(err)
}
