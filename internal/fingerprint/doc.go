// SPDX-License-Identifier: MPL-2.0

// Package fingerprint identifies the system an environment directory was
// built for.
//
// A Fingerprint is "<os-name>-<os-release>-<interpreter-path>", for example
// "Linux-5.15.0-/usr/bin/python3". Two fingerprints are compatible only when
// they are byte-for-byte equal. Store persists one fingerprint as a
// single-line text file.
package fingerprint
