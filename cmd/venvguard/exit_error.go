// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/venvguard/venvguard/pkg/types"
)

// exitStatus ends a command with a non-zero code once the command has
// already reported what happened. writeError prints nothing for it.
type exitStatus types.ExitCode

func silentExit(code types.ExitCode) error {
	return exitStatus(code)
}

func (e exitStatus) Error() string {
	return "exit status " + types.ExitCode(e).String()
}

// processExitCode maps the error returned by the command tree to the code
// venvguard exits with.
func processExitCode(err error) int {
	if err == nil {
		return int(types.ExitSuccess)
	}
	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}
	return int(types.ExitFailure)
}
