// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/venvguard/venvguard/internal/fingerprint"
	"github.com/venvguard/venvguard/internal/issue"
	"github.com/venvguard/venvguard/internal/runtime"
	"github.com/venvguard/venvguard/pkg/platform"
)

var (
	// ErrInvalidOptions is returned by New for unusable Options.
	ErrInvalidOptions = errors.New("invalid bootstrap options")
	// ErrEnvironmentMissing is returned when the environment directory is
	// absent after the creation tool ran.
	ErrEnvironmentMissing = errors.New("environment directory does not exist")
)

type (
	// Options is everything one bootstrap run needs to know.
	Options struct {
		// EnvDir is the environment directory, relative to the working directory or absolute.
		EnvDir string
		// FingerprintFile is the file name of the fingerprint inside EnvDir.
		FingerprintFile string
		// Manifest is the requirements file handed to the installer.
		Manifest string
		// Interpreter is the absolute path of the interpreter that creates the environment.
		Interpreter string
		// Installers holds the per-platform installer sub-paths.
		Installers platform.InstallerPaths
		// InstallerArgs are appended after "install -r <manifest>".
		InstallerArgs []string
		// VerifyModules must import after installation. Empty disables verification.
		VerifyModules []string
		// Strict turns external tool failures into errors.
		Strict bool
	}

	// Report summarises one Bootstrap run.
	Report struct {
		// States lists the visited states, starting with StateStart.
		States []State
		// Compatible is the result of the compatibility check.
		Compatible bool
		// Fingerprint is the current system fingerprint.
		Fingerprint fingerprint.Fingerprint
		// Missing lists the modules that failed to import.
		Missing []string
		// Installs counts installer invocations.
		Installs int
	}

	// Bootstrapper owns one environment directory.
	Bootstrapper struct {
		opts     Options
		fs       afero.Fs
		runner   runtime.Runner
		strategy platform.Strategy
		source   fingerprint.Source
		notifier Notifier
		logger   *log.Logger

		current  fingerprint.Fingerprint
		installs int
	}

	// Option configures a Bootstrapper.
	Option func(*Bootstrapper)
)

// WithFs sets the filesystem used for existence checks and the fingerprint file.
func WithFs(fsys afero.Fs) Option {
	return func(b *Bootstrapper) { b.fs = fsys }
}

// WithRunner sets how external tools are executed.
func WithRunner(r runtime.Runner) Option {
	return func(b *Bootstrapper) { b.runner = r }
}

// WithStrategy sets the platform strategy.
func WithStrategy(s platform.Strategy) Option {
	return func(b *Bootstrapper) { b.strategy = s }
}

// WithSource replaces the fingerprint source. Its Interpreter is overwritten
// with Options.Interpreter.
func WithSource(p fingerprint.Source) Option {
	return func(b *Bootstrapper) { b.source = p }
}

// WithNotifier sets where status events go.
func WithNotifier(n Notifier) Option {
	return func(b *Bootstrapper) { b.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Bootstrapper) { b.logger = l }
}

// New validates opts and returns a Bootstrapper for the host unless
// overridden by options.
func New(opts Options, options ...Option) (*Bootstrapper, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	b := &Bootstrapper{
		opts:     opts,
		fs:       afero.NewOsFs(),
		strategy: platform.CurrentStrategy(),
		notifier: discard,
		logger:   log.Default(),
	}
	for _, o := range options {
		o(b)
	}
	if b.runner == nil {
		b.runner = runtime.NewNativeRunner(runtime.WithLogger(b.logger))
	}
	b.source.Interpreter = opts.Interpreter

	return b, nil
}

func (o Options) validate() error {
	var problems []string
	if strings.TrimSpace(o.EnvDir) == "" {
		problems = append(problems, "environment directory is empty")
	}
	if strings.TrimSpace(o.FingerprintFile) == "" || strings.ContainsAny(o.FingerprintFile, `/\`) {
		problems = append(problems, fmt.Sprintf("fingerprint file %q is not a plain file name", o.FingerprintFile))
	}
	if strings.TrimSpace(o.Manifest) == "" {
		problems = append(problems, "manifest is empty")
	}
	if o.Interpreter == "" {
		problems = append(problems, "interpreter is empty")
	}
	if o.Installers.Windows == "" || o.Installers.POSIX == "" {
		problems = append(problems, "installer sub-paths are incomplete")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(problems, "; "))
	}
	return nil
}

// Options returns the options the Bootstrapper was built with.
func (b *Bootstrapper) Options() Options { return b.opts }

// FingerprintPath returns the location of the fingerprint file.
func (b *Bootstrapper) FingerprintPath() string {
	return filepath.Join(b.opts.EnvDir, b.opts.FingerprintFile)
}

// InstallerPath returns the installer executable inside the environment.
func (b *Bootstrapper) InstallerPath() string {
	return filepath.Join(b.opts.EnvDir, b.strategy.InstallerSubPath(b.opts.Installers))
}

// PythonPath returns the environment's own interpreter.
func (b *Bootstrapper) PythonPath() string {
	return b.BinPath("python")
}

// BinPath returns where an executable called name lives inside the
// environment. The file may not exist.
func (b *Bootstrapper) BinPath(name string) string {
	return filepath.Join(b.opts.EnvDir, b.strategy.BinDir(), b.strategy.Executable(name))
}

// Fingerprint returns the current system fingerprint. The source runs once
// per Bootstrapper.
func (b *Bootstrapper) Fingerprint(ctx context.Context) (fingerprint.Fingerprint, error) {
	if b.current != "" {
		return b.current, nil
	}
	fp, err := b.source.Current(ctx)
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("compute system fingerprint").
			WithResource(b.opts.Interpreter).
			WithIssue(issue.FingerprintIOFailedId).
			Wrap(err).
			BuildError()
	}
	b.current = fp
	return fp, nil
}

// Bootstrap runs the full sequence once. The returned Report is non-nil
// even on error and holds the states reached so far.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (*Report, error) {
	b.installs = 0
	report := &Report{States: []State{StateStart}}
	enter := func(s State) {
		last := report.States[len(report.States)-1]
		if !last.CanTransition(s) {
			panic(fmt.Sprintf("venv: invalid transition %s -> %s", last, s))
		}
		b.logger.Debug("state", "from", last, "to", s)
		report.States = append(report.States, s)
	}

	compatible, err := b.IsCompatible(ctx)
	if err != nil {
		return report, err
	}
	report.Compatible = compatible
	report.Fingerprint = b.current

	if compatible {
		enter(StateCompatible)
	} else {
		enter(StateIncompatible)
		if err := b.Teardown(ctx); err != nil {
			return report, err
		}
		enter(StateTornDown)
		if err := b.Create(ctx); err != nil {
			return report, err
		}
		enter(StateRecreated)
	}

	_, err = b.InstallDependencies(ctx)
	report.Installs = b.installs
	if err != nil {
		return report, err
	}
	enter(StateInstalled)

	missing, err := b.VerifyImports(ctx)
	if err != nil {
		return report, err
	}
	report.Missing = missing

	if len(missing) == 0 {
		enter(StateVerified)
	} else {
		_, err = b.InstallDependencies(ctx)
		report.Installs = b.installs
		if err != nil {
			return report, err
		}
		enter(StateReinstalled)
	}

	enter(StateDone)
	return report, nil
}

// IsCompatible reports whether the environment directory exists and holds a
// fingerprint equal to the current one.
func (b *Bootstrapper) IsCompatible(ctx context.Context) (bool, error) {
	current, err := b.Fingerprint(ctx)
	if err != nil {
		return false, err
	}

	exists, err := b.envExists()
	if err != nil {
		return false, err
	}
	if !exists {
		b.logger.Debug("environment directory missing", "dir", b.opts.EnvDir)
		return false, nil
	}

	stored, found, err := fingerprint.NewStore(b.fs, b.FingerprintPath()).Read()
	if err != nil {
		return false, b.fsError("read environment fingerprint", b.FingerprintPath(), err)
	}
	if !found {
		b.logger.Debug("fingerprint file missing", "path", b.FingerprintPath())
		return false, nil
	}

	compatible := stored.Matches(current)
	b.logger.Debug("fingerprint compared", "stored", stored, "current", current, "compatible", compatible)
	return compatible, nil
}

// Teardown removes the environment directory with the platform's native
// delete command. Anything else found at the environment path is removed
// directly. It does nothing when the path does not exist.
func (b *Bootstrapper) Teardown(ctx context.Context) error {
	info, err := b.lstatEnv()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return b.fsError("inspect environment directory", b.opts.EnvDir, err)
	}

	b.notify(PhaseTeardown, LevelInfo, "Removing incompatible virtual environment...")
	if !info.IsDir() {
		b.logger.Debug("environment path is not a directory", "path", b.opts.EnvDir, "mode", info.Mode().String())
		if err := b.fs.Remove(b.opts.EnvDir); err != nil {
			return b.fsError("remove environment", b.opts.EnvDir, err)
		}
		b.notify(PhaseTeardown, LevelSuccess, "Virtual environment removed.")
		return nil
	}

	name, args := b.strategy.RemoveCommand(b.opts.EnvDir)
	inv := runtime.Invocation{Name: name, Args: args}
	ok, err := b.checkTool(inv, b.runner.Run(ctx, inv), issue.TeardownFailedId, "remove environment",
		"Close programs that hold files inside the environment directory",
		"Delete the directory manually and rerun venvguard")
	if err != nil {
		return err
	}
	if ok {
		b.notify(PhaseTeardown, LevelSuccess, "Virtual environment removed.")
	}
	return nil
}

// Create builds a fresh environment with "<interpreter> -m venv" and writes
// the current fingerprint into it.
func (b *Bootstrapper) Create(ctx context.Context) error {
	current, err := b.Fingerprint(ctx)
	if err != nil {
		return err
	}

	b.notify(PhaseCreate, LevelInfo, "Creating a new virtual environment...")
	inv := runtime.Invocation{Name: b.opts.Interpreter, Args: []string{"-m", "venv", b.opts.EnvDir}}
	if _, err := b.checkTool(inv, b.runner.Run(ctx, inv), issue.EnvironmentCreateFailedId, "create environment",
		"Check that the interpreter ships the venv module (Debian: apt install python3-venv)",
		"Run the command above by hand to see the full error"); err != nil {
		return err
	}

	exists, err := b.envExists()
	if err != nil {
		return err
	}
	if !exists {
		return b.fsError("write environment fingerprint", b.FingerprintPath(),
			fmt.Errorf("%w: %s", ErrEnvironmentMissing, b.opts.EnvDir))
	}
	if err := fingerprint.NewStore(b.fs, b.FingerprintPath()).Write(current); err != nil {
		return b.fsError("write environment fingerprint", b.FingerprintPath(), err)
	}

	b.notify(PhaseCreate, LevelSuccess, "Virtual environment created.")
	return nil
}

// InstallDependencies runs the environment's installer against the manifest.
// It reports whether the installer was invoked; a missing manifest skips it.
func (b *Bootstrapper) InstallDependencies(ctx context.Context) (bool, error) {
	manifest := b.opts.Manifest
	info, err := b.fs.Stat(manifest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.notify(PhaseInstall, LevelWarn, fmt.Sprintf("No %s file found. Skipping dependency installation.", filepath.Base(manifest)))
		return false, nil
	case err != nil:
		return false, b.fsError("read dependency manifest", manifest, err)
	case info.IsDir():
		return false, b.fsError("read dependency manifest", manifest, fmt.Errorf("%s is a directory", manifest))
	}

	b.notify(PhaseInstall, LevelInfo, fmt.Sprintf("Installing dependencies from %s...", filepath.Base(manifest)))
	args := append([]string{"install", "-r", manifest}, b.opts.InstallerArgs...)
	inv := runtime.Invocation{Name: b.InstallerPath(), Args: args}
	b.installs++
	ok, err := b.checkTool(inv, b.runner.Run(ctx, inv), issue.InstallFailedId, "install dependencies",
		"Check the manifest for misspelled or unavailable packages",
		"Packages with C extensions may need system headers installed")
	if err != nil {
		return true, err
	}
	if ok {
		b.notify(PhaseInstall, LevelSuccess, "Dependencies installed.")
	}
	return true, nil
}

// VerifyImports tries to import every configured module with the
// environment's interpreter and returns the ones that failed, in order.
func (b *Bootstrapper) VerifyImports(ctx context.Context) ([]string, error) {
	if len(b.opts.VerifyModules) == 0 {
		return nil, nil
	}

	python := b.PythonPath()
	var missing []string
	for _, module := range b.opts.VerifyModules {
		inv := runtime.Invocation{Name: python, Args: []string{"-c", "import " + module}, Capture: true}
		res := b.runner.Run(ctx, inv)
		if res.Success() {
			continue
		}
		if res.Error != nil && b.opts.Strict {
			return missing, issue.NewErrorContext().
				WithOperation("verify imports").
				WithResource(python).
				WithIssue(issue.ImportVerificationFailedId).
				WithSuggestion("The environment's interpreter could not be started; rerun to recreate the environment").
				Wrap(res.Error).
				BuildError()
		}
		b.logger.Debug("import failed", "module", module, "exit", res.ExitCode, "stderr", strings.TrimSpace(res.ErrOutput), "error", res.Error)
		missing = append(missing, module)
	}

	if len(missing) == 0 {
		b.notify(PhaseVerify, LevelSuccess, "All required modules are installed.")
		return nil, nil
	}
	b.notify(PhaseVerify, LevelWarn, fmt.Sprintf("Missing dependencies: %s. Installing now...", strings.Join(missing, ", ")))
	return missing, nil
}

// lstatEnv does not follow a symlink at the environment path, so a dangling
// link still counts as present.
func (b *Bootstrapper) lstatEnv() (fs.FileInfo, error) {
	if l, ok := b.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(b.opts.EnvDir)
		return info, err
	}
	return b.fs.Stat(b.opts.EnvDir)
}

func (b *Bootstrapper) envExists() (bool, error) {
	info, err := b.fs.Stat(b.opts.EnvDir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, b.fsError("inspect environment directory", b.opts.EnvDir, err)
	}
	return info.IsDir(), nil
}

// checkTool reports whether inv succeeded. A failure is an error in strict
// mode and a logged warning otherwise.
func (b *Bootstrapper) checkTool(inv runtime.Invocation, res *runtime.Result, id issue.Id, op string, suggestions ...string) (bool, error) {
	err := res.Err()
	if err == nil {
		return true, nil
	}
	if !b.opts.Strict {
		b.logger.Warn("tool failed, continuing", "cmd", inv.String(), "error", err)
		return false, nil
	}

	ec := issue.NewErrorContext().
		WithOperation(op).
		WithResource(inv.String()).
		WithIssue(id)
	for _, s := range suggestions {
		ec = ec.WithSuggestion(s)
	}
	return false, ec.Wrap(err).BuildError()
}

func (b *Bootstrapper) fsError(op, resource string, err error) error {
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		WithIssue(issue.FingerprintIOFailedId).
		WithSuggestion("Check permissions on the environment directory and its parent").
		Wrap(err).
		BuildError()
}

func (b *Bootstrapper) notify(phase Phase, level Level, msg string) {
	b.notifier.Notify(Event{Phase: phase, Level: level, Message: msg})
}
