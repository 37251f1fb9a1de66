// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It detects the host Platform once from runtime.GOOS and exposes a Strategy
// per platform for the commands and directory layouts that differ between
// Windows and POSIX hosts: the native recursive delete command, the
// Scripts/ versus bin/ executables directory, and default interpreter names.
package platform
