// SPDX-License-Identifier: MPL-2.0

// Package venv keeps a Python virtual environment usable across machines.
//
// A Bootstrapper runs one fixed sequence per process start: it checks the
// fingerprint stored in the environment directory against the running
// system, tears the directory down and recreates it with "<python> -m venv"
// when they differ, installs the dependency manifest with the environment's
// own pip, and verifies that the required modules import. When any module
// is missing the installer runs exactly once more.
//
// External tool failures are logged and ignored unless Options.Strict is
// set. Filesystem errors always abort the run.
package venv
