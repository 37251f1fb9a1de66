// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/venvguard/venvguard/pkg/types"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Invocation describes one external tool call.
	Invocation struct {
		// Name is the executable name or path.
		Name string
		// Args are passed to the executable verbatim.
		Args []string
		// Dir overrides the working directory when non-empty.
		Dir string
		// Env replaces the inherited environment when non-nil.
		Env []string
		// Capture collects stdout/stderr into the Result instead of streaming.
		Capture bool
	}

	// Result contains the outcome of an invocation.
	Result struct {
		// ExitCode is the process exit code: 128+n when it was killed by
		// signal n, 1 when it failed to start.
		ExitCode types.ExitCode
		// Error is set only when the process never ran. A non-zero exit or
		// a death by signal is not an error.
		Error error
		// Output contains captured stdout (capture mode only).
		Output string
		// ErrOutput contains captured stderr (capture mode only).
		ErrOutput string
	}

	// Runner executes external tools and blocks until they finish.
	Runner interface {
		Run(ctx context.Context, inv Invocation) *Result
	}

	// NativeRunner runs invocations as host processes.
	NativeRunner struct {
		stdout      io.Writer
		stderr      io.Writer
		stdin       io.Reader
		execCommand ExecCommandFunc
		logger      *log.Logger
	}

	// NativeRunnerOption configures a NativeRunner.
	NativeRunnerOption func(*NativeRunner)
)

// WithStdout sets where streamed stdout goes.
func WithStdout(w io.Writer) NativeRunnerOption {
	return func(r *NativeRunner) { r.stdout = w }
}

// WithStderr sets where streamed stderr goes.
func WithStderr(w io.Writer) NativeRunnerOption {
	return func(r *NativeRunner) { r.stderr = w }
}

// WithStdin forwards r to the child's stdin in streaming mode.
func WithStdin(in io.Reader) NativeRunnerOption {
	return func(r *NativeRunner) { r.stdin = in }
}

// WithExecCommand replaces exec.CommandContext.
func WithExecCommand(fn ExecCommandFunc) NativeRunnerOption {
	return func(r *NativeRunner) { r.execCommand = fn }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) NativeRunnerOption {
	return func(r *NativeRunner) { r.logger = l }
}

// NewNativeRunner creates a runner that streams to os.Stdout/os.Stderr by default.
func NewNativeRunner(opts ...NativeRunnerOption) *NativeRunner {
	r := &NativeRunner{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		execCommand: exec.CommandContext,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes inv and waits for it. No timeout is applied beyond ctx.
func (r *NativeRunner) Run(ctx context.Context, inv Invocation) *Result {
	if inv.Name == "" {
		return NewErrorResult(types.ExitFailure, fmt.Errorf("invocation has no executable"))
	}

	//nolint:gosec // executable and args come from venvguard's own configuration
	cmd := r.execCommand(ctx, inv.Name, inv.Args...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if inv.Env != nil {
		cmd.Env = inv.Env
	}

	sink := newOutputSink(inv.Capture, r.stdout, r.stderr)
	cmd.Stdout = sink.stdout
	cmd.Stderr = sink.stderr
	if !inv.Capture {
		cmd.Stdin = r.stdin
	}

	r.logger.Debug("running", "cmd", inv.String())
	result := sink.result(cmd.Run())
	if cmd.ProcessState != nil {
		r.logger.Debug("finished", "cmd", inv.Name, "exit", result.ExitCode, "state", cmd.ProcessState.String())
	} else {
		r.logger.Debug("not started", "cmd", inv.Name, "error", result.Error)
	}

	return result
}

// String renders the invocation as a shell-like command line for logs.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, quoteArg(inv.Name))
	for _, a := range inv.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Success reports whether the invocation exited with code 0 and no error.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// Err converts a failed Result into an error, or nil on success.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}
	if r.Error != nil {
		return r.Error
	}
	return &ExitStatusError{Code: r.ExitCode, Stderr: strings.TrimSpace(r.ErrOutput)}
}
