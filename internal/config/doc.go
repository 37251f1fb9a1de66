// SPDX-License-Identifier: MPL-2.0

// Package config loads venvguard configuration with Viper.
//
// Sources, lowest precedence first: built-in defaults, the [tool.venvguard]
// table of pyproject.toml in the project directory, venvguard.cue in the
// project directory (or the file named by --config), and VENVGUARD_*
// environment variables. Command-line flags are applied by the caller on top
// of the loaded Config.
//
// CUE files are validated against the embedded config_schema.cue before
// they are merged.
package config
