// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/config"
	"github.com/venvguard/venvguard/internal/fingerprint"
	"github.com/venvguard/venvguard/internal/issue"
	"github.com/venvguard/venvguard/internal/runtime"
	"github.com/venvguard/venvguard/internal/venv"
	"github.com/venvguard/venvguard/pkg/platform"
	"github.com/venvguard/venvguard/pkg/types"
)

type (
	// App wires CLI dependencies. Command handlers receive it and never
	// reach for os.Stdout or the real filesystem directly.
	App struct {
		stdout   io.Writer
		stderr   io.Writer
		stdin    io.Reader
		fs       afero.Fs
		strategy platform.Strategy
		resolver fingerprint.InterpreterResolver
		release  fingerprint.ReleaseFunc
		runner   runtime.Runner
		environ  func() []string
		verbose  bool
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Stdout   io.Writer
		Stderr   io.Writer
		Stdin    io.Reader
		Fs       afero.Fs
		Strategy platform.Strategy
		LookPath fingerprint.LookPathFunc
		Release  fingerprint.ReleaseFunc
		// Runner replaces the process runner used for bootstrap tools and run.
		Runner  runtime.Runner
		Environ func() []string
	}

	// session is the per-invocation state shared by the subcommands.
	session struct {
		cfg     *config.Config
		sources config.Sources
		verbose bool
		logger  *log.Logger
	}
)

// NewApp builds an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		stdin:    deps.Stdin,
		fs:       deps.Fs,
		strategy: deps.Strategy,
		resolver: fingerprint.InterpreterResolver{LookPath: deps.LookPath},
		release:  deps.Release,
		runner:   deps.Runner,
		environ:  deps.Environ,
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.fs == nil {
		app.fs = afero.NewOsFs()
	}
	if app.strategy == nil {
		app.strategy = platform.CurrentStrategy()
	}
	if app.environ == nil {
		app.environ = os.Environ
	}
	return app
}

// openSession loads configuration and applies the flags the user set.
func (a *App) openSession(ctx context.Context, cmd *cobra.Command, flags *rootFlagValues) (*session, error) {
	cfg, sources, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, Fs: a.fs})
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed(flagEnvDir) {
		cfg.EnvDir = types.FilesystemPath(flags.envDir)
	}
	if changed(flagManifest) {
		cfg.Manifest = types.FilesystemPath(flags.manifest)
	}
	if changed(flagInterpreter) {
		cfg.Interpreter = flags.interpreter
	}
	if changed(flagStrict) {
		cfg.Strict = flags.strict
	}
	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate command-line flags").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	verbose := flags.verbose || cfg.UI.Verbose
	a.verbose = verbose
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName, Level: level})
	logger.Debug("configuration loaded", "pyproject", sources.Pyproject, "config", sources.ConfigFile)

	return &session{cfg: cfg, sources: sources, verbose: verbose, logger: logger}, nil
}

// bootstrapper resolves the interpreter and builds a Bootstrapper for s.
func (a *App) bootstrapper(s *session) (*venv.Bootstrapper, error) {
	interpreter, err := a.resolver.Resolve(s.cfg.Interpreter, a.strategy.DefaultInterpreters())
	if err != nil {
		resource := s.cfg.Interpreter
		if resource == "" {
			resource = "PATH"
		}
		return nil, issue.NewErrorContext().
			WithOperation("resolve Python interpreter").
			WithResource(resource).
			WithIssue(issue.InterpreterNotFoundId).
			WithSuggestion("Install Python 3 and make sure it is on your PATH").
			WithSuggestion("Set the interpreter with --interpreter or VENVGUARD_INTERPRETER").
			Wrap(err).
			BuildError()
	}
	s.logger.Debug("interpreter resolved", "path", interpreter)

	extra, err := s.cfg.InstallerArgs()
	if err != nil {
		return nil, err
	}
	var modules []string
	if s.cfg.Verify.Enabled {
		modules = s.cfg.Verify.Modules
	}

	return venv.New(venv.Options{
		EnvDir:          string(s.cfg.EnvDir),
		FingerprintFile: string(s.cfg.FingerprintFile),
		Manifest:        string(s.cfg.Manifest),
		Interpreter:     interpreter,
		Installers:      platform.InstallerPaths{Windows: s.cfg.Installer.Windows, POSIX: s.cfg.Installer.POSIX},
		InstallerArgs:   extra,
		VerifyModules:   modules,
		Strict:          s.cfg.Strict,
	},
		venv.WithFs(a.fs),
		venv.WithRunner(a.runnerFor(s)),
		venv.WithStrategy(a.strategy),
		venv.WithSource(fingerprint.Source{Release: a.release}),
		venv.WithNotifier(consoleNotifier{w: a.stdout}),
		venv.WithLogger(s.logger),
	)
}

// runnerFor returns the injected runner, or one wired to the App's streams.
func (a *App) runnerFor(s *session) runtime.Runner {
	if a.runner != nil {
		return a.runner
	}
	return runtime.NewNativeRunner(
		runtime.WithStdout(a.stdout),
		runtime.WithStderr(a.stderr),
		runtime.WithStdin(a.stdin),
		runtime.WithLogger(s.logger),
	)
}

// bootstrap runs the full sequence and prints a summary in verbose mode.
func (a *App) bootstrap(ctx context.Context, s *session, b *venv.Bootstrapper) (*venv.Report, error) {
	report, err := b.Bootstrap(ctx)
	if s.verbose && report != nil {
		states := make([]string, len(report.States))
		for i, st := range report.States {
			states[i] = st.String()
		}
		s.logger.Debug("bootstrap finished",
			"states", states,
			"compatible", report.Compatible,
			"missing", report.Missing,
			"installs", report.Installs)
	}
	return report, err
}

// writeError renders err for the user. Actionable errors show their
// suggestions, and in verbose mode the error chain and the help entry.
func (a *App) writeError(w io.Writer, err error, verbose bool) {
	var status exitStatus
	if errors.As(err, &status) {
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		_, _ = io.WriteString(w, failStyle.Render("Error: ")+err.Error()+"\n")
		return
	}

	_, _ = io.WriteString(w, failStyle.Render("Error: ")+ae.Format(verbose)+"\n")
	if !verbose || ae.IssueID == 0 {
		return
	}
	if entry := issue.Get(ae.IssueID); entry != nil {
		if rendered, renderErr := entry.Render("auto"); renderErr == nil {
			_, _ = io.WriteString(w, rendered)
		}
	}
}
