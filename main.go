// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/venvguard/venvguard/cmd/venvguard"

func main() {
	cmd.Execute()
}
