// SPDX-License-Identifier: MPL-2.0

// Package runtime runs the external tools venvguard depends on: the native
// delete command, the interpreter's venv module, the package installer and
// the user's program.
//
// Every invocation blocks until the process exits. A non-zero exit is a
// normal Result, not an error; callers decide whether it matters.
// NativeRunner accepts an ExecCommandFunc so tests can substitute a helper
// process for the real executable.
package runtime
