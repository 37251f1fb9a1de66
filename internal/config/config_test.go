// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venvguard/venvguard/internal/issue"
	"github.com/venvguard/venvguard/pkg/types"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, types.FilesystemPath("venv"), cfg.EnvDir)
	assert.Equal(t, types.FileName("system_info.txt"), cfg.FingerprintFile)
	assert.Equal(t, types.FilesystemPath("requirements.txt"), cfg.Manifest)
	assert.Equal(t, "Scripts/pip", cfg.Installer.Windows)
	assert.Equal(t, "bin/pip", cfg.Installer.POSIX)
	assert.True(t, cfg.Verify.Enabled)
	assert.Equal(t, []string{"psycopg2", "serial"}, cfg.Verify.Modules)
	assert.False(t, cfg.Strict)
	assert.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, sources, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Empty(t, sources.Pyproject)
	assert.Empty(t, sources.ConfigFile)
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Load(ctx, LoadOptions{Fs: afero.NewMemMapFs()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadPyproject(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{
		"/proj/pyproject.toml": `
[project]
name = "demo"

[tool.venvguard]
env-dir = ".venv"
strict = true

[tool.venvguard.verify]
modules = ["requests"]
`,
	})

	cfg, sources, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.NoError(t, err)
	assert.Equal(t, "/proj/pyproject.toml", sources.Pyproject)
	assert.Equal(t, types.FilesystemPath(".venv"), cfg.EnvDir)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"requests"}, cfg.Verify.Modules)
	assert.True(t, cfg.Verify.Enabled)
	assert.Equal(t, types.FilesystemPath("requirements.txt"), cfg.Manifest)
}

func TestLoadPyprojectWithoutTable(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{"/proj/pyproject.toml": "[project]\nname = \"demo\"\n"})

	cfg, sources, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.NoError(t, err)
	assert.Empty(t, sources.Pyproject)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPyprojectInvalidTOML(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{"/proj/pyproject.toml": "[tool.venvguard\n"})

	_, _, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.Error(t, err)

	var ae *issue.ActionableError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "load configuration", ae.Operation)
	assert.Equal(t, "/proj/pyproject.toml", ae.Resource)
}

func TestLoadCUEOverridesPyproject(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{
		"/proj/pyproject.toml": "[tool.venvguard]\nenv_dir = \".venv\"\nmanifest = \"req/base.txt\"\n",
		"/proj/venvguard.cue": `
env_dir: "build/env"
installer: args: "--no-cache-dir --quiet"
watch: debounce: "2s"
`,
	})

	cfg, sources, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.NoError(t, err)
	assert.Equal(t, "/proj/venvguard.cue", sources.ConfigFile)
	assert.Equal(t, types.FilesystemPath("build/env"), cfg.EnvDir)
	assert.Equal(t, types.FilesystemPath("req/base.txt"), cfg.Manifest)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)

	args, err := cfg.InstallerArgs()
	require.NoError(t, err)
	assert.Equal(t, []string{"--no-cache-dir", "--quiet"}, args)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{
		"/proj/venvguard.cue": `env_dir: "ignored"`,
		"/etc/custom.cue":     `env_dir: "custom"`,
	})

	cfg, sources, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", ConfigFilePath: "/etc/custom.cue", Fs: fsys})
	require.NoError(t, err)
	assert.Equal(t, "/etc/custom.cue", sources.ConfigFile)
	assert.Equal(t, types.FilesystemPath("custom"), cfg.EnvDir)
}

func TestLoadExplicitConfigFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: "/nope.cue", Fs: afero.NewMemMapFs()})
	require.Error(t, err)

	var ae *issue.ActionableError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, issue.ConfigLoadFailedId, ae.IssueID)
	assert.True(t, ae.HasSuggestions())
}

func TestLoadCUESchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `envdir: "venv"`},
		{"wrong type", `strict: "yes"`},
		{"fingerprint with separator", `fingerprint_file: "a/b.txt"`},
		{"module not an identifier", `verify: modules: ["os; import sys"]`},
		{"bad debounce", `watch: debounce: "soon"`},
		{"syntax error", `env_dir: "venv`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := memFs(t, map[string]string{"/proj/venvguard.cue": tt.content})
			_, _, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "venvguard.cue")
		})
	}
}

func TestLoadEnvOverridesFiles(t *testing.T) {
	t.Setenv("VENVGUARD_ENV_DIR", "from-env")
	t.Setenv("VENVGUARD_STRICT", "true")
	t.Setenv("VENVGUARD_VERIFY_MODULES", "yaml,requests")
	t.Setenv("VENVGUARD_INSTALLER_POSIX", "bin/pip3")

	fsys := memFs(t, map[string]string{"/proj/venvguard.cue": `env_dir: "from-file"`})

	cfg, _, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.NoError(t, err)
	assert.Equal(t, types.FilesystemPath("from-env"), cfg.EnvDir)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"yaml", "requests"}, cfg.Verify.Modules)
	assert.Equal(t, "bin/pip3", cfg.Installer.POSIX)
}

func TestLoadInvalidAfterMerge(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{"/proj/pyproject.toml": "[tool.venvguard.installer]\nposix = \"/usr/bin/pip\"\n"})

	_, _, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "installer.posix")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty env dir", func(c *Config) { c.EnvDir = "  " }, "env_dir"},
		{"reserved env dir", func(c *Config) { c.EnvDir = "build/NUL" }, "env_dir"},
		{"env dir is project", func(c *Config) { c.EnvDir = "." }, "env_dir"},
		{"env dir is parent", func(c *Config) { c.EnvDir = ".." }, "env_dir"},
		{"env dir holds manifest", func(c *Config) { c.Manifest = "venv/requirements.txt" }, "env_dir"},
		{"fingerprint path", func(c *Config) { c.FingerprintFile = "../x.txt" }, "fingerprint_file"},
		{"empty manifest", func(c *Config) { c.Manifest = "" }, "manifest"},
		{"empty windows installer", func(c *Config) { c.Installer.Windows = "" }, "installer.windows"},
		{"unbalanced args", func(c *Config) { c.Installer.Args = `--index-url "http://x` }, "installer.args"},
		{"bad module", func(c *Config) { c.Verify.Modules = []string{"serial", "1abc"} }, "verify.modules[1]"},
		{"zero debounce", func(c *Config) { c.Watch.Debounce = 0 }, "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCheckEnvDirPlacement(t *testing.T) {
	t.Parallel()

	wd := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(wd, 0o755))
	wd, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)

	tests := []struct {
		name     string
		envDir   string
		manifest string
		unsafe   bool
	}{
		{"default layout", "venv", "requirements.txt", false},
		{"hidden env", ".venv", "requirements.txt", false},
		{"sibling env", "../proj-venv", "requirements.txt", false},
		{"absolute env elsewhere", filepath.Join(filepath.Dir(wd), "envs", "proj"), "requirements.txt", false},
		{"manifest in subdir", "venv", filepath.Join("deps", "requirements.txt"), false},
		{"project dir", ".", "requirements.txt", true},
		{"project dir with trailing slash", "./", "requirements.txt", true},
		{"absolute project dir", wd, "requirements.txt", true},
		{"parent dir", "..", "requirements.txt", true},
		{"filesystem root", filepath.VolumeName(wd) + string(filepath.Separator), "requirements.txt", true},
		{"manifest inside env", "venv", filepath.Join("venv", "requirements.txt"), true},
		{"absolute manifest inside env", "deps", filepath.Join(wd, "deps", "nested", "requirements.txt"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckEnvDirPlacement(tt.envDir, tt.manifest, wd)
			if tt.unsafe {
				require.ErrorIs(t, err, ErrUnsafeEnvDir)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateRejectsWorkingDirectory(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.EnvDir = types.FilesystemPath(wd)

	err = cfg.Validate()
	var ice *InvalidConfigError
	require.ErrorAs(t, err, &ice)
	require.Len(t, ice.FieldErrors, 1)
	assert.ErrorIs(t, ice.FieldErrors[0], ErrUnsafeEnvDir)
	assert.Contains(t, err.Error(), "env_dir")
}

func TestInvalidModuleNameError(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Verify.Modules = []string{"import os"}

	err := cfg.Validate()
	var ice *InvalidConfigError
	require.ErrorAs(t, err, &ice)
	require.Len(t, ice.FieldErrors, 1)
	assert.ErrorIs(t, ice.FieldErrors[0], ErrInvalidModuleName)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, WriteDefault(fsys, "/proj/venvguard.cue", false))

	cfg, sources, err := Load(context.Background(), LoadOptions{ProjectDir: "/proj", Fs: fsys})
	require.NoError(t, err)
	assert.Equal(t, "/proj/venvguard.cue", sources.ConfigFile)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	t.Parallel()

	fsys := memFs(t, map[string]string{"/proj/venvguard.cue": `strict: true`})

	err := WriteDefault(fsys, "/proj/venvguard.cue", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	require.NoError(t, WriteDefault(fsys, "/proj/venvguard.cue", true))
	data, err := afero.ReadFile(fsys, "/proj/venvguard.cue")
	require.NoError(t, err)
	assert.Contains(t, string(data), `env_dir:          "venv"`)
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "verify.modules[1]", fieldPath([]string{"#Config", "verify", "modules", "1"}))
	assert.Equal(t, "env_dir", fieldPath([]string{"env_dir"}))
	assert.Empty(t, fieldPath(nil))
}
