// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
	ErrInvalidFilesystemPath = errors.New("invalid filesystem path")
	// ErrInvalidFileName is the sentinel error wrapped by InvalidFileNameError.
	ErrInvalidFileName = errors.New("invalid file name")
)

type (
	// FilesystemPath represents an absolute or relative filesystem path.
	// A valid path must be non-empty and not whitespace-only.
	FilesystemPath string

	// InvalidFilesystemPathError is returned when a FilesystemPath value is
	// empty or whitespace-only.
	InvalidFilesystemPathError struct {
		Value FilesystemPath
	}

	// FileName is a single path element such as "system_info.txt".
	// It must be non-empty and must not contain a path separator.
	FileName string

	// InvalidFileNameError is returned when a FileName is empty or contains
	// a separator.
	InvalidFileNameError struct {
		Value FileName
	}
)

// String returns the string representation of the FilesystemPath.
func (p FilesystemPath) String() string { return string(p) }

// Validate returns an error if the FilesystemPath is empty or whitespace-only.
func (p FilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidFilesystemPathError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidFilesystemPathError.
func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidFilesystemPath for errors.Is() compatibility.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }

// String returns the string representation of the FileName.
func (n FileName) String() string { return string(n) }

// Validate returns an error unless the FileName is a single, non-empty path element.
func (n FileName) Validate() error {
	s := string(n)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, `/\`) || s == "." || s == ".." || filepath.Base(s) != s {
		return &InvalidFileNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidFileNameError.
func (e *InvalidFileNameError) Error() string {
	return fmt.Sprintf("invalid file name %q: must be a single non-empty path element", e.Value)
}

// Unwrap returns ErrInvalidFileName for errors.Is() compatibility.
func (e *InvalidFileNameError) Unwrap() error { return ErrInvalidFileName }
