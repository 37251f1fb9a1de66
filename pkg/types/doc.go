// SPDX-License-Identifier: MPL-2.0

// Package types holds small validated value types shared across venvguard
// packages: process exit codes and filesystem path elements.
package types
