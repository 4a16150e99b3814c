// Package platform describes the machine tooldef runs on. The information
// is exposed read-only to tool definitions as the Lua global "platform" and
// is folded into the User-Agent of outgoing requests.
//
// Detection uses gopsutil and degrades gracefully: when the distribution
// cannot be determined, only OS and architecture are reported.
package platform

import (
	"context"
	"fmt"
	"strings"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS            string // "linux", "darwin", "windows"
	Arch          string // normalized, e.g. "amd64", "arm64"
	ArchRaw       string // as reported by the runtime
	Kernel        string // kernel version, may be empty
	Distro        string // distro ID (Linux only), e.g. "ubuntu"
	Family        string // canonical family (Linux only), e.g. "debian"
	DistroVersion string // distro version (Linux only), e.g. "22.04"
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool { return i.OS == "linux" }

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool { return i.OS == "darwin" }

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool { return i.OS == "windows" }

// HasDistro reports whether Linux distribution details are known.
func (i *Info) HasDistro() bool { return i.IsLinux() && i.Distro != "" }

// UserAgent formats a User-Agent value such as
// "tooldef/1.0 (linux; amd64; ubuntu 22.04)".
func (i *Info) UserAgent(product string) string {
	if i == nil {
		return product
	}
	parts := []string{i.OS, i.Arch}
	if i.HasDistro() {
		parts = append(parts, strings.TrimSpace(i.Distro+" "+i.DistroVersion))
	}
	return fmt.Sprintf("%s (%s)", product, strings.Join(parts, "; "))
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
