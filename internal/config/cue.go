// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

//go:embed config_schema.cue
var configSchema string

// mergeCUE validates the file at path against #Config and merges it into v.
// The schema is not concrete, so every field stays optional.
func mergeCUE(fsys afero.Fs, v *viper.Viper, path string) error {
	data, err := readConfigFile(fsys, path)
	if err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError renders each CUE error as "<file>: <field.path>: <message>".
func formatCUEError(err error, path string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		field := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if field != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
			msg = field + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", path, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", path, strings.Join(lines, "\n  "))
}

// fieldPath turns ["verify", "modules", "1"] into "verify.modules[1]".
// The leading "#Config" selector is dropped.
func fieldPath(parts []string) string {
	var sb strings.Builder
	for _, p := range parts {
		if p == "#Config" {
			continue
		}
		if _, err := strconv.Atoi(p); err == nil && sb.Len() > 0 {
			sb.WriteString("[" + p + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(p)
	}
	return sb.String()
}

// GenerateCUE renders cfg in venvguard.cue syntax.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// venvguard configuration\n")
	sb.WriteString("// Fields left out keep their built-in defaults.\n\n")

	fmt.Fprintf(&sb, "env_dir:          %q\n", cfg.EnvDir)
	fmt.Fprintf(&sb, "fingerprint_file: %q\n", cfg.FingerprintFile)
	fmt.Fprintf(&sb, "manifest:         %q\n", cfg.Manifest)
	fmt.Fprintf(&sb, "interpreter:      %q\n", cfg.Interpreter)
	fmt.Fprintf(&sb, "strict:           %v\n", cfg.Strict)

	sb.WriteString("\ninstaller: {\n")
	fmt.Fprintf(&sb, "\twindows: %q\n", cfg.Installer.Windows)
	fmt.Fprintf(&sb, "\tposix:   %q\n", cfg.Installer.POSIX)
	fmt.Fprintf(&sb, "\targs:    %q\n", cfg.Installer.Args)
	sb.WriteString("}\n")

	sb.WriteString("\nverify: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Verify.Enabled)
	quoted := make([]string, 0, len(cfg.Verify.Modules))
	for _, m := range cfg.Verify.Modules {
		quoted = append(quoted, strconv.Quote(m))
	}
	fmt.Fprintf(&sb, "\tmodules: [%s]\n", strings.Join(quoted, ", "))
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
