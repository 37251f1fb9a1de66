// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package runtime

import "os"

// Processes on these platforms do not die by signal in a way the wait
// status reports.
func terminatingSignal(*os.ProcessState) (int, bool) { return 0, false }
