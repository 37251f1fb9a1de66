// SPDX-License-Identifier: MPL-2.0

package fingerprint

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// ErrInterpreterNotFound is returned when no interpreter candidate resolves.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

type (
	// LookPathFunc resolves an executable name through PATH.
	LookPathFunc func(file string) (string, error)

	// InterpreterResolver turns a configured interpreter value, or the
	// platform's default candidates, into an absolute executable path.
	InterpreterResolver struct {
		// LookPath defaults to exec.LookPath.
		LookPath LookPathFunc
		// Getenv is used for $VAR and ~ expansion; defaults to os.Getenv.
		Getenv func(string) string
	}
)

// Resolve returns the absolute interpreter path.
//
// A configured value is expanded like a single shell word ("$HOME/py/bin/python",
// "~/.pyenv/shims/python"). A bare name is looked up on PATH; a value with a
// separator is made absolute without checking that it exists. With an empty
// configured value each candidate is looked up in order.
func (r InterpreterResolver) Resolve(configured string, candidates []string) (string, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if strings.TrimSpace(configured) != "" {
		fields, err := shell.Fields(configured, getenv)
		if err != nil {
			return "", fmt.Errorf("expand interpreter %q: %w", configured, err)
		}
		if len(fields) != 1 {
			return "", fmt.Errorf("interpreter %q must expand to exactly one path, got %d", configured, len(fields))
		}
		return resolveOne(fields[0], lookPath)
	}

	for _, name := range candidates {
		if p, err := resolveOne(name, lookPath); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrInterpreterNotFound, strings.Join(candidates, ", "))
}

func resolveOne(name string, lookPath LookPathFunc) (string, error) {
	if strings.ContainsAny(name, `/\`) {
		return filepath.Abs(name)
	}
	p, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInterpreterNotFound, name, err)
	}
	return filepath.Abs(p)
}
