// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the venvguard command-line interface.
//
// Every invocation builds its command tree from an App, the composition
// root that owns the output streams, filesystem and platform strategy.
// Commands load configuration, apply flag overrides, and delegate to the
// venv.Bootstrapper.
package cmd
