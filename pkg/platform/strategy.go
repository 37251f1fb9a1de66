// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"strings"
)

type (
	// InstallerPaths holds the package installer location relative to the
	// environment directory, one entry per directory layout.
	InstallerPaths struct {
		// Windows is used for the Scripts/ layout (e.g. "Scripts/pip").
		Windows string
		// POSIX is used for the bin/ layout (e.g. "bin/pip").
		POSIX string
	}

	// Strategy encapsulates the platform-dependent parts of managing an
	// environment directory: how to delete it, where its executables live,
	// and which interpreters to look for.
	Strategy interface {
		// Platform returns the platform this strategy serves.
		Platform() Platform
		// RemoveCommand returns the native command that recursively deletes dir.
		RemoveCommand(dir string) (name string, args []string)
		// BinDir is the executables directory inside an environment.
		BinDir() string
		// Executable adds the platform's executable suffix to name.
		Executable(name string) string
		// InstallerSubPath selects the installer path for this platform.
		InstallerSubPath(paths InstallerPaths) string
		// DefaultInterpreters lists interpreter names to search for, in order.
		DefaultInterpreters() []string
	}

	posixStrategy struct {
		platform Platform
	}

	windowsStrategy struct{}
)

// DefaultInstallerPaths returns the installer locations created by the
// standard venv module.
func DefaultInstallerPaths() InstallerPaths {
	return InstallerPaths{
		Windows: "Scripts/pip",
		POSIX:   "bin/pip",
	}
}

// StrategyFor returns the Strategy for p. Invalid values fall back to the
// POSIX strategy.
func StrategyFor(p Platform) Strategy {
	if p == PlatformWindows {
		return windowsStrategy{}
	}
	if p.Validate() != nil {
		p = PlatformOther
	}
	return posixStrategy{platform: p}
}

// CurrentStrategy returns the Strategy for the running process.
func CurrentStrategy() Strategy {
	return StrategyFor(Detect())
}

func (s posixStrategy) Platform() Platform { return s.platform }

func (posixStrategy) RemoveCommand(dir string) (string, []string) {
	return "rm", []string{"-rf", dir}
}

func (posixStrategy) BinDir() string { return "bin" }

func (posixStrategy) Executable(name string) string { return name }

func (posixStrategy) InstallerSubPath(paths InstallerPaths) string {
	return filepath.FromSlash(paths.POSIX)
}

func (posixStrategy) DefaultInterpreters() []string {
	return []string{"python3", "python"}
}

func (windowsStrategy) Platform() Platform { return PlatformWindows }

// RemoveCommand uses rmdir through cmd.exe since rmdir is a shell builtin.
func (windowsStrategy) RemoveCommand(dir string) (string, []string) {
	return "cmd", []string{"/C", "rmdir", "/s", "/q", dir}
}

func (windowsStrategy) BinDir() string { return "Scripts" }

func (windowsStrategy) Executable(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name
	}
	return name + ".exe"
}

func (windowsStrategy) InstallerSubPath(paths InstallerPaths) string {
	return filepath.FromSlash(paths.Windows)
}

func (windowsStrategy) DefaultInterpreters() []string {
	return []string{"python", "py"}
}
