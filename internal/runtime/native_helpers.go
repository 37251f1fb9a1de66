// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/venvguard/venvguard/pkg/types"
)

// outputSink routes a child's stdout and stderr either to the runner's
// writers or into buffers that end up in the Result.
type outputSink struct {
	stdout io.Writer
	stderr io.Writer
	outBuf *bytes.Buffer
	errBuf *bytes.Buffer
}

func newOutputSink(capture bool, stdout, stderr io.Writer) *outputSink {
	if !capture {
		return &outputSink{stdout: stdout, stderr: stderr}
	}
	s := &outputSink{outBuf: &bytes.Buffer{}, errBuf: &bytes.Buffer{}}
	s.stdout, s.stderr = s.outBuf, s.errBuf
	return s
}

// result builds the Result for runErr, the error returned by exec.Cmd.Run.
// Only a process that never ran sets Result.Error. Any exit, including
// death by signal, is reported through ExitCode.
func (s *outputSink) result(runErr error) *Result {
	res := &Result{}
	if s.outBuf != nil {
		res.Output = s.outBuf.String()
		res.ErrOutput = s.errBuf.String()
	}
	if runErr == nil {
		return res
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		res.ExitCode = types.ExitFailure
		res.Error = runErr
		return res
	}
	res.ExitCode = exitCodeOf(exitErr.ProcessState)
	return res
}

// exitCodeOf maps a finished process to an ExitCode: 128+n for signal n,
// ExitFailure for statuses that do not fit in a byte.
func exitCodeOf(state *os.ProcessState) types.ExitCode {
	if sig, ok := terminatingSignal(state); ok {
		return types.FromSignal(sig)
	}
	return types.FromStatus(state.ExitCode())
}
