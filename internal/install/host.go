// Package install puts a downloaded IDE archive in place on the local machine.
//
// Linux hosts extract the tarball under an install prefix, optionally point a
// version-agnostic symlink at it and register a desktop entry. macOS hosts
// hand the disk image to the system "open" handler and let the user finish
// interactively. Every other host is unsupported.
package install

import "github.com/3leaps/jbi/internal/model"

// Host is the closed set of host operating systems jbi knows how to install on.
type Host int

const (
	HostUnsupported Host = iota
	HostLinux
	HostDarwin
)

// DetectHost maps a GOOS value to a Host.
func DetectHost(goos string) Host {
	switch goos {
	case "linux":
		return HostLinux
	case "darwin":
		return HostDarwin
	default:
		return HostUnsupported
	}
}

func (h Host) String() string {
	switch h {
	case HostLinux:
		return "linux"
	case HostDarwin:
		return "darwin"
	default:
		return "unsupported"
	}
}

// Notifier receives human-readable status lines.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}

// UnsupportedHost reports that no install variant exists for goos.
func UnsupportedHost(goos string) error {
	return model.Markf(model.ErrUnsupportedPlatform, "unsupported platform for installation: %s", goos)
}

type nopNotifier struct{}

func (nopNotifier) Info(string) {}
func (nopNotifier) Warn(string) {}
