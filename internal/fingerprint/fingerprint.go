// SPDX-License-Identifier: MPL-2.0

package fingerprint

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/venvguard/venvguard/pkg/platform"
)

// Separator joins the fingerprint components.
const Separator = "-"

type (
	// Fingerprint is the derived system identity string.
	Fingerprint string

	// ReleaseFunc returns the operating system release, e.g. "5.15.0-91-generic".
	ReleaseFunc func(ctx context.Context) (string, error)

	// Source gathers the fingerprint components of the running system.
	// The zero value reads the host; fields override individual sources.
	Source struct {
		// GOOS overrides runtime.GOOS.
		GOOS string
		// Release overrides the kernel release lookup.
		Release ReleaseFunc
		// Interpreter is the absolute interpreter path. It must be set.
		Interpreter string
	}
)

// Compute joins the three components with Separator.
func Compute(osName, release, interpreter string) Fingerprint {
	return Fingerprint(strings.Join([]string{osName, release, interpreter}, Separator))
}

// String returns the fingerprint text.
func (f Fingerprint) String() string { return string(f) }

// Matches reports whether f equals other exactly.
func (f Fingerprint) Matches(other Fingerprint) bool { return f == other }

// HostRelease returns the kernel release of the running host. On Linux and
// macOS this matches Python's platform.release(). On Windows gopsutil
// reports the full build, e.g. "10.0.22631 Build 22631", where Python
// would report "10" or "11".
func HostRelease(ctx context.Context) (string, error) {
	release, err := host.KernelVersionWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("query kernel release: %w", err)
	}
	return strings.TrimSpace(release), nil
}

// Current computes the fingerprint of the described system.
func (p Source) Current(ctx context.Context) (Fingerprint, error) {
	if p.Interpreter == "" {
		return "", fmt.Errorf("fingerprint source has no interpreter")
	}

	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	releaseFn := p.Release
	if releaseFn == nil {
		releaseFn = HostRelease
	}

	release, err := releaseFn(ctx)
	if err != nil {
		return "", err
	}

	return Compute(platform.SystemName(goos), release, p.Interpreter), nil
}
