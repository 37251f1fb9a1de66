// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/venvguard/venvguard/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "venvguard"
	// ConfigFileName is the project config file name.
	ConfigFileName = "venvguard.cue"
	// PyprojectFileName is the Python project file carrying [tool.venvguard].
	PyprojectFileName = "pyproject.toml"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "VENVGUARD"

	// maxConfigFileSize bounds config files read into memory.
	maxConfigFileSize = 1 << 20
)

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific CUE file when set.
		ConfigFilePath string
		// ProjectDir is where pyproject.toml and venvguard.cue are looked up.
		// Defaults to the working directory.
		ProjectDir string
		// Fs defaults to the OS filesystem.
		Fs afero.Fs
	}

	// Sources records which files contributed to a loaded Config.
	Sources struct {
		Pyproject  string
		ConfigFile string
	}
)

// Load builds the effective configuration. Missing optional files are not an
// error; an explicit ConfigFilePath that does not exist is.
func Load(ctx context.Context, opts LoadOptions) (*Config, Sources, error) {
	select {
	case <-ctx.Done():
		return nil, Sources{}, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	v := newViper()
	var sources Sources

	pyPath := filepath.Join(opts.ProjectDir, PyprojectFileName)
	found, err := mergePyproject(fsys, v, pyPath)
	if err != nil {
		return nil, sources, loadError(pyPath, err,
			"Check that pyproject.toml is valid TOML",
			"Keys under [tool.venvguard] must match the venvguard.cue schema")
	}
	if found {
		sources.Pyproject = pyPath
	}

	cuePath := opts.ConfigFilePath
	if cuePath == "" {
		cuePath = filepath.Join(opts.ProjectDir, ConfigFileName)
		if !fileExists(fsys, cuePath) {
			cuePath = ""
		}
	} else if !fileExists(fsys, cuePath) {
		return nil, sources, loadError(cuePath, fmt.Errorf("config file not found: %s", cuePath),
			"Verify the file path is correct",
			"Use 'venvguard config init' to create a default configuration")
	}
	if cuePath != "" {
		if err := mergeCUE(fsys, v, cuePath); err != nil {
			return nil, sources, loadError(cuePath, err,
				"Check that the file contains valid CUE syntax",
				"See 'venvguard config show' for the expected fields")
		}
		sources.ConfigFile = cuePath
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, sources, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, sources, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Fix the listed fields in your configuration sources").
			Wrap(err).
			BuildError()
	}

	return &cfg, sources, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("env_dir", string(defaults.EnvDir))
	v.SetDefault("fingerprint_file", string(defaults.FingerprintFile))
	v.SetDefault("manifest", string(defaults.Manifest))
	v.SetDefault("interpreter", defaults.Interpreter)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("installer.windows", defaults.Installer.Windows)
	v.SetDefault("installer.posix", defaults.Installer.POSIX)
	v.SetDefault("installer.args", defaults.Installer.Args)
	v.SetDefault("verify.enabled", defaults.Verify.Enabled)
	v.SetDefault("verify.modules", defaults.Verify.Modules)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func loadError(resource string, err error, suggestions ...string) error {
	ctx := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(resource).
		WithIssue(issue.ConfigLoadFailedId)
	for _, s := range suggestions {
		ctx = ctx.WithSuggestion(s)
	}
	return ctx.Wrap(err).BuildError()
}

func readConfigFile(fsys afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}
	return data, nil
}

func fileExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration as CUE to path. An existing
// file is only replaced when overwrite is set.
func WriteDefault(fsys afero.Fs, path string, overwrite bool) error {
	if !overwrite && fileExists(fsys, path) {
		return fmt.Errorf("%s already exists: %w", path, os.ErrExist)
	}
	if err := afero.WriteFile(fsys, path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
