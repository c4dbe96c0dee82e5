package platform

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTarget indicates no vendor release exists for a platform.
var ErrUnsupportedTarget = errors.New("unsupported target")

// Target is one of the platform images the vendor tools are released for.
type Target string

const (
	TargetWin64      Target = "win64"
	TargetMacOSAMD64 Target = "macos-amd64"
	TargetMacOSARM64 Target = "macos-arm64"
	TargetLinuxAMD64 Target = "linux-amd64"
	TargetLinuxARM64 Target = "linux-arm64"
	TargetLinuxARM32 Target = "linux-arm32"
)

// Targets lists every supported target.
var Targets = []Target{
	TargetWin64,
	TargetMacOSAMD64,
	TargetMacOSARM64,
	TargetLinuxAMD64,
	TargetLinuxARM64,
	TargetLinuxARM32,
}

// ImageFamily selects the release image naming scheme of a vendor project.
type ImageFamily int

const (
	// ImageEsptool names images like esptool releases: win64, macos, linux-*.
	ImageEsptool ImageFamily = iota
	// ImageNvs names images like esp-idf-nvs-partition-gen releases.
	ImageNvs
)

var targetInfo = map[Target]struct {
	os, arch string
}{
	TargetWin64:      {"windows", "amd64"},
	TargetMacOSAMD64: {"darwin", "amd64"},
	TargetMacOSARM64: {"darwin", "arm64"},
	TargetLinuxAMD64: {"linux", "amd64"},
	TargetLinuxARM64: {"linux", "arm64"},
	TargetLinuxARM32: {"linux", "arm"},
}

// TargetFor maps detected platform information onto a Target. Linux
// requires the gnu ABI.
func TargetFor(info *Info) (Target, error) {
	if info == nil {
		return "", fmt.Errorf("platform info is required")
	}

	if info.IsLinux() && info.ABI != "" && info.ABI != ABIGNU {
		return "", fmt.Errorf("%w: linux/%s with %s ABI (only gnu is released)", ErrUnsupportedTarget, info.Arch, info.ABI)
	}

	for _, t := range Targets {
		ti := targetInfo[t]
		if ti.os == info.OS && ti.arch == info.Arch {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedTarget, info.OS, info.Arch)
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(s)
	if _, ok := targetInfo[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTarget, s)
	}
	return t, nil
}

// String returns the target name.
func (t Target) String() string {
	return string(t)
}

// OS returns the GOOS of the target.
func (t Target) OS() string {
	return targetInfo[t].os
}

// Arch returns the normalized architecture of the target.
func (t Target) Arch() string {
	return targetInfo[t].arch
}

// Windows reports whether executables for t carry the .exe suffix.
func (t Target) Windows() bool {
	return t == TargetWin64
}

// ReleaseSuffix returns the image name a vendor project uses for t.
func (t Target) ReleaseSuffix(family ImageFamily) (string, error) {
	switch family {
	case ImageEsptool:
		switch t {
		case TargetWin64:
			return "win64", nil
		case TargetMacOSAMD64, TargetMacOSARM64:
			return "macos", nil
		case TargetLinuxAMD64, TargetLinuxARM64, TargetLinuxARM32:
			return string(t), nil
		}
	case ImageNvs:
		switch t {
		case TargetWin64:
			return "win64", nil
		case TargetMacOSAMD64, TargetMacOSARM64, TargetLinuxAMD64:
			return string(t), nil
		case TargetLinuxARM64:
			return "aarch64", nil
		case TargetLinuxARM32:
			return "armv7", nil
		}
	default:
		return "", fmt.Errorf("unknown image family: %d", family)
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedTarget, string(t))
}
