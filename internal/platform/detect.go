package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// HostDetector implements Detector on top of gopsutil.
type HostDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &HostDetector{}
}

// Detect reports OS and architecture from the Go runtime and, on Linux,
// the distribution from gopsutil. A failed gopsutil lookup is not an error;
// a cancelled context is.
func (d *HostDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		Arch:    normalizeArch(runtime.GOARCH),
		ArchRaw: runtime.GOARCH,
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	info.Kernel = normalize(stat.KernelVersion)
	if info.IsLinux() {
		if distro := normalize(stat.Platform); distro != "" {
			info.Distro = distro
			info.Family = mapFamily(stat.PlatformFamily)
			info.DistroVersion = normalize(stat.PlatformVersion)
		}
	}

	return info, nil
}

// StaticDetector always reports the same Info.
type StaticDetector struct {
	Info *Info
	Err  error
}

// Detect returns the configured values.
func (d *StaticDetector) Detect(ctx context.Context) (*Info, error) {
	return d.Info, d.Err
}
