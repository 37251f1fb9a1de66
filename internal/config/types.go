// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"mvdan.cc/sh/v3/shell"

	"github.com/venvguard/venvguard/pkg/platform"
	"github.com/venvguard/venvguard/pkg/types"
)

const (
	// DefaultEnvDir is the environment directory relative to the project directory.
	DefaultEnvDir types.FilesystemPath = "venv"
	// DefaultFingerprintFile is the fingerprint file name inside the environment directory.
	DefaultFingerprintFile types.FileName = "system_info.txt"
	// DefaultManifest is the dependency manifest relative to the project directory.
	DefaultManifest types.FilesystemPath = "requirements.txt"
	// DefaultWatchDebounce is the quiet period before a manifest change triggers a reinstall.
	DefaultWatchDebounce = 500 * time.Millisecond
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnsafeEnvDir is returned when rebuilding env_dir would delete the
	// project itself or the manifest.
	ErrUnsafeEnvDir = errors.New("unsafe environment directory")
	// ErrInvalidModuleName is the sentinel error wrapped by InvalidModuleNameError.
	ErrInvalidModuleName = errors.New("invalid module name")

	moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

type (
	// Config is the complete venvguard configuration.
	Config struct {
		// EnvDir is the environment directory.
		EnvDir types.FilesystemPath `json:"env_dir" mapstructure:"env_dir"`
		// FingerprintFile is the fingerprint file name inside EnvDir.
		FingerprintFile types.FileName `json:"fingerprint_file" mapstructure:"fingerprint_file"`
		// Manifest is the requirements file passed to the installer.
		Manifest types.FilesystemPath `json:"manifest" mapstructure:"manifest"`
		// Interpreter overrides interpreter discovery. Empty means the
		// platform's default candidates.
		Interpreter string `json:"interpreter" mapstructure:"interpreter"`
		// Strict turns external tool failures into errors.
		Strict bool `json:"strict" mapstructure:"strict"`
		// Installer configures the package installer.
		Installer InstallerConfig `json:"installer" mapstructure:"installer"`
		// Verify configures post-install import verification.
		Verify VerifyConfig `json:"verify" mapstructure:"verify"`
		// Watch configures the watch command.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// UI configures console output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// InstallerConfig locates the installer inside the environment directory.
	InstallerConfig struct {
		// Windows is the installer sub-path on Windows.
		Windows string `json:"windows" mapstructure:"windows"`
		// POSIX is the installer sub-path everywhere else.
		POSIX string `json:"posix" mapstructure:"posix"`
		// Args are extra installer arguments, split like shell words.
		Args string `json:"args" mapstructure:"args"`
	}

	// VerifyConfig lists the modules that must import after installation.
	VerifyConfig struct {
		Enabled bool     `json:"enabled" mapstructure:"enabled"`
		Modules []string `json:"modules" mapstructure:"modules"`
	}

	// WatchConfig configures manifest watching.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}

	// UIConfig configures console output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// InvalidModuleNameError is returned for a verify module that is not a
	// dotted Python identifier.
	InvalidModuleNameError struct {
		Value string
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	installers := platform.DefaultInstallerPaths()
	return &Config{
		EnvDir:          DefaultEnvDir,
		FingerprintFile: DefaultFingerprintFile,
		Manifest:        DefaultManifest,
		Installer: InstallerConfig{
			Windows: installers.Windows,
			POSIX:   installers.POSIX,
		},
		Verify: VerifyConfig{
			Enabled: true,
			Modules: []string{"psycopg2", "serial"},
		},
		Watch: WatchConfig{Debounce: DefaultWatchDebounce},
	}
}

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	var errs []error

	if err := c.EnvDir.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("env_dir: %w", err))
	} else if base := filepath.Base(filepath.Clean(string(c.EnvDir))); platform.IsWindowsReservedName(base) {
		errs = append(errs, fmt.Errorf("env_dir: %q is a reserved device name on Windows", base))
	} else if wd, wdErr := os.Getwd(); wdErr == nil {
		if err := CheckEnvDirPlacement(string(c.EnvDir), string(c.Manifest), wd); err != nil {
			errs = append(errs, fmt.Errorf("env_dir: %w", err))
		}
	}
	if err := c.FingerprintFile.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fingerprint_file: %w", err))
	}
	if err := c.Manifest.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("manifest: %w", err))
	}

	installers := []struct{ field, value string }{
		{"installer.windows", c.Installer.Windows},
		{"installer.posix", c.Installer.POSIX},
	}
	for _, in := range installers {
		switch {
		case strings.TrimSpace(in.value) == "":
			errs = append(errs, fmt.Errorf("%s: must be non-empty", in.field))
		case filepath.IsAbs(in.value) || strings.HasPrefix(in.value, "/"):
			errs = append(errs, fmt.Errorf("%s: %q must be relative to the environment directory", in.field, in.value))
		}
	}
	if _, err := c.InstallerArgs(); err != nil {
		errs = append(errs, fmt.Errorf("installer.args: %w", err))
	}

	for i, m := range c.Verify.Modules {
		if !moduleNamePattern.MatchString(m) {
			errs = append(errs, fmt.Errorf("verify.modules[%d]: %w", i, &InvalidModuleNameError{Value: m}))
		}
	}

	if c.Watch.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must be positive, got %s", c.Watch.Debounce))
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// CheckEnvDirPlacement rejects an environment directory that is the project
// directory wd, one of its ancestors, or a directory holding the manifest.
// The environment directory is removed on every rebuild. Relative paths are
// resolved against wd.
func CheckEnvDirPlacement(envDir, manifest, wd string) error {
	env := resolvePath(envDir, wd)
	project := resolvePath(".", wd)
	if rel, err := filepath.Rel(env, project); err == nil && filepath.IsLocal(rel) {
		return fmt.Errorf("%w: %q contains the project directory %q", ErrUnsafeEnvDir, envDir, project)
	}
	if manifest == "" {
		return nil
	}
	if rel, err := filepath.Rel(env, resolvePath(manifest, wd)); err == nil && filepath.IsLocal(rel) {
		return fmt.Errorf("%w: %q contains the manifest %q", ErrUnsafeEnvDir, envDir, manifest)
	}
	return nil
}

// resolvePath makes p absolute against wd and follows symlinks when p exists.
func resolvePath(p, wd string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(wd, p)
	}
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}

// InstallerArgs splits Installer.Args into words. Variables are expanded
// from the process environment.
func (c *Config) InstallerArgs() ([]string, error) {
	if strings.TrimSpace(c.Installer.Args) == "" {
		return nil, nil
	}
	return shell.Fields(c.Installer.Args, nil)
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface for InvalidModuleNameError.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: must be a dotted Python identifier", e.Value)
}

// Unwrap returns ErrInvalidModuleName for errors.Is() compatibility.
func (e *InvalidModuleNameError) Unwrap() error { return ErrInvalidModuleName }
