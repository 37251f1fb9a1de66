// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/venvguard/venvguard/internal/venv"
)

// consoleNotifier prints bootstrap events as one marked line each.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Notify(e venv.Event) {
	fmt.Fprintf(n.w, "%s %s\n", mark(e.Level), e.Message)
}
