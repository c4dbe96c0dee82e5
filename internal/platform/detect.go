package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a detector for the running process.
func NewDetector() Detector {
	return &RealDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Detect reports OS and architecture from the Go runtime and, on Linux, the
// distribution from gopsutil. The ABI is musl on Alpine and gnu on every
// other Linux, including when the distribution cannot be detected.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      d.goos,
		ArchRaw: d.goarch,
	}

	arch, err := normalizeArch(d.goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	info.Arch = arch

	if d.goos != "linux" {
		return info, nil
	}

	info.ABI = ABIGNU

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform == "" {
		return info, nil
	}

	info.Platform = platform
	info.Family = mapFamily(family)
	info.Version = normalizePlatform(version)
	if platform == FamilyAlpine {
		info.Family = FamilyAlpine
	}
	info.ABI = abiFor(info.Family)

	return info, nil
}
