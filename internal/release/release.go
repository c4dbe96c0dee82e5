// Package release fetches vendor release archives for a target and packs
// the tools inside them into an esptools payload directory.
package release

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/esptools/internal/archive"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

const (
	// EsptoolVersion is the esptool release esptool, espsecure and espefuse come from.
	EsptoolVersion = "4.8.1"
	// NvsVersion is the esp-idf-nvs-partition-gen release espidfnvs comes from.
	NvsVersion = "0.0.1"
)

// Release identifies one downloadable vendor archive.
type Release struct {
	Project string
	Version string
	URL     string
	Format  archive.Format
}

// Key identifies the archive. Tools sharing a key are extracted from one download.
func (r Release) Key() string {
	return r.URL
}

// Resolver maps a tool and target onto the release archive carrying it.
type Resolver func(t tool.Tool, target platform.Target) (Release, error)

// ReleaseFor returns the upstream release archive for t on target.
func ReleaseFor(t tool.Tool, target platform.Target) (Release, error) {
	switch t {
	case tool.EspTool, tool.EspSecure, tool.EspEfuse:
		// Pattern: https://github.com/espressif/esptool/releases/download/v{version}/esptool-v{version}-{image}.zip
		image, err := target.ReleaseSuffix(platform.ImageEsptool)
		if err != nil {
			return Release{}, err
		}
		return Release{
			Project: "esptool",
			Version: EsptoolVersion,
			URL: fmt.Sprintf(upstreamHost+"/espressif/esptool/releases/download/v%[1]s/esptool-v%[1]s-%[2]s.zip",
				EsptoolVersion, image),
			Format: archive.FormatZip,
		}, nil

	case tool.EspIdfNvs:
		// Pattern: https://github.com/ivmarkov/esp-idf-nvs-partition-gen/releases/download/v{version}/espidfnvs-v{version}-{image}.{zip|tar.gz}
		image, err := target.ReleaseSuffix(platform.ImageNvs)
		if err != nil {
			return Release{}, err
		}
		format := archive.FormatTarGz
		if target.Windows() {
			format = archive.FormatZip
		}
		return Release{
			Project: "espidfnvs",
			Version: NvsVersion,
			URL: fmt.Sprintf(upstreamHost+"/ivmarkov/esp-idf-nvs-partition-gen/releases/download/v%[1]s/espidfnvs-v%[1]s-%[2]s.%[3]s",
				NvsVersion, image, format),
			Format: format,
		}, nil

	default:
		return Release{}, fmt.Errorf("unknown tool: %s", t)
	}
}

// upstreamHost prefixes every URL ReleaseFor returns.
const upstreamHost = "https://github.com"

// MirrorResolver resolves like ReleaseFor but downloads from base, which must
// serve the same paths as github.com.
func MirrorResolver(base string) Resolver {
	base = strings.TrimSuffix(base, "/")
	return func(t tool.Tool, target platform.Target) (Release, error) {
		rel, err := ReleaseFor(t, target)
		if err != nil {
			return Release{}, err
		}
		rel.URL = base + strings.TrimPrefix(rel.URL, upstreamHost)
		return rel, nil
	}
}
