// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

const (
	// PlatformLinux is a Linux host.
	PlatformLinux Platform = iota + 1
	// PlatformDarwin is a macOS host.
	PlatformDarwin
	// PlatformWindows is a Windows host.
	PlatformWindows
	// PlatformOther is any other POSIX-like host (BSDs, illumos, ...).
	PlatformOther
)

// ErrInvalidPlatform is the sentinel error wrapped by InvalidPlatformError.
var ErrInvalidPlatform = errors.New("invalid platform")

type (
	// Platform identifies the host family that decides which external
	// commands and directory layouts are used. The zero value is invalid.
	Platform int

	// InvalidPlatformError is returned when a Platform value is not one of
	// the declared constants.
	InvalidPlatformError struct {
		Value Platform
	}
)

// Detect returns the Platform of the running process.
func Detect() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a runtime.GOOS value to a Platform.
func FromGOOS(goos string) Platform {
	switch goos {
	case Linux:
		return PlatformLinux
	case Darwin:
		return PlatformDarwin
	case Windows:
		return PlatformWindows
	default:
		return PlatformOther
	}
}

// Validate returns an error if the Platform is not a declared constant.
func (p Platform) Validate() error {
	switch p {
	case PlatformLinux, PlatformDarwin, PlatformWindows, PlatformOther:
		return nil
	default:
		return &InvalidPlatformError{Value: p}
	}
}

// IsWindows reports whether p is the Windows platform.
func (p Platform) IsWindows() bool { return p == PlatformWindows }

// String returns the lowercase platform name.
func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return Linux
	case PlatformDarwin:
		return Darwin
	case PlatformWindows:
		return Windows
	case PlatformOther:
		return "other"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// Error implements the error interface for InvalidPlatformError.
func (e *InvalidPlatformError) Error() string {
	return fmt.Sprintf("invalid platform %d", int(e.Value))
}

// Unwrap returns ErrInvalidPlatform for errors.Is() compatibility.
func (e *InvalidPlatformError) Unwrap() error { return ErrInvalidPlatform }

// SystemName returns the operating system name in the form Python's
// platform.system() reports it ("Linux", "Darwin", "Windows", "FreeBSD").
// Unknown values are returned with their first letter upper-cased.
func SystemName(goos string) string {
	switch goos {
	case Linux:
		return "Linux"
	case Darwin:
		return "Darwin"
	case Windows:
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	case "dragonfly":
		return "DragonFly"
	case "solaris":
		return "SunOS"
	case "":
		return ""
	default:
		return strings.ToUpper(goos[:1]) + goos[1:]
	}
}
