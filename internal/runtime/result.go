// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"

	"github.com/venvguard/venvguard/pkg/types"
)

// ErrNonZeroExit is the sentinel error wrapped by ExitStatusError.
var ErrNonZeroExit = errors.New("non-zero exit status")

// ExitStatusError reports a tool that ran but exited non-zero.
type ExitStatusError struct {
	Code   types.ExitCode
	Stderr string
}

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("exit status %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns ErrNonZeroExit for errors.Is() compatibility.
func (e *ExitStatusError) Unwrap() error { return ErrNonZeroExit }

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code types.ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than start failures.
func NewExitCodeResult(code types.ExitCode) *Result {
	return &Result{ExitCode: code}
}
