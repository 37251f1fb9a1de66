// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// mergePyproject merges the [tool.venvguard] table of the pyproject.toml at
// path into v. Hyphenated keys ("env-dir") are accepted alongside the
// snake_case names used in venvguard.cue. It reports whether a table was found.
func mergePyproject(fsys afero.Fs, v *viper.Viper, path string) (bool, error) {
	if !fileExists(fsys, path) {
		return false, nil
	}

	data, err := readConfigFile(fsys, path)
	if err != nil {
		return false, err
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	tool, ok := doc["tool"].(map[string]any)
	if !ok {
		return false, nil
	}
	raw, ok := tool[AppName]
	if !ok {
		return false, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return false, fmt.Errorf("%s: [tool.%s] must be a table", path, AppName)
	}

	if err := v.MergeConfigMap(normalizeKeys(table)); err != nil {
		return false, fmt.Errorf("failed to merge %s: %w", path, err)
	}
	return true, nil
}

func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, val := range in {
		if nested, ok := val.(map[string]any); ok {
			val = normalizeKeys(nested)
		}
		out[strings.ReplaceAll(k, "-", "_")] = val
	}
	return out
}
