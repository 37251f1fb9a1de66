// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitSuccess is reported by a tool that finished its work.
	ExitSuccess ExitCode = 0
	// ExitFailure is venvguard's own generic failure, also used for tools
	// that could not be started or whose status does not fit in a byte.
	ExitFailure ExitCode = 1

	// signalBase is added to a signal number, as POSIX shells do.
	signalBase = 128
	// maxSignal bounds the signal numbers FromSignal accepts.
	maxSignal = 127
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is the status a child process or venvguard itself exits
	// with. Only 0-255 can be passed to os.Exit portably.
	ExitCode int

	// InvalidExitCodeError reports an ExitCode outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// FromStatus converts a raw exit status from the OS. Statuses that do not
// fit in a byte, such as Windows NTSTATUS values, become ExitFailure.
func FromStatus(status int) ExitCode {
	code := ExitCode(status)
	if code.Validate() != nil {
		return ExitFailure
	}
	return code
}

// FromSignal returns 128+sig, the status a shell reports for a child
// killed by signal sig.
func FromSignal(sig int) ExitCode {
	if sig <= 0 || sig > maxSignal {
		return ExitFailure
	}
	return ExitCode(signalBase + sig)
}

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d out of range 0-255", e.Value)
}

// Unwrap returns ErrInvalidExitCode.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate rejects codes os.Exit cannot carry on every platform.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// String returns c in decimal.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
