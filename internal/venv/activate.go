// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"fmt"
	"path/filepath"

	"github.com/venvguard/venvguard/internal/runtime"
)

// Activate returns base with the environment's bin directory first on PATH,
// VIRTUAL_ENV set to the absolute environment directory and PYTHONHOME
// removed, which is what the activate script of a venv does.
func (b *Bootstrapper) Activate(base []string) ([]string, error) {
	dir, err := filepath.Abs(b.opts.EnvDir)
	if err != nil {
		return nil, fmt.Errorf("resolve environment directory: %w", err)
	}

	env := runtime.UnsetEnv(base, "PYTHONHOME")
	env = runtime.SetEnv(env, "VIRTUAL_ENV", dir)
	return runtime.PrependPath(env, filepath.Join(dir, b.strategy.BinDir())), nil
}
