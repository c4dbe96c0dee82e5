package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/esptools/internal/archive"
	"github.com/ZebulonRouseFrantzich/esptools/internal/binary"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

const (
	// ManifestName is the manifest file name inside a payload directory.
	ManifestName = "manifest.json"
	// SignatureName is the detached signature of the manifest.
	SignatureName = ManifestName + ".asc"
	// ManifestVersion is the only manifest schema version understood.
	ManifestVersion = 1
)

// ErrInvalidManifest indicates a manifest that cannot describe a usable payload.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest describes the tools stored in a payload directory.
type Manifest struct {
	Version     int       `json:"version"`
	BuildID     string    `json:"build_id"`
	Target      string    `json:"target"`
	Windows     bool      `json:"windows"`
	GeneratedAt time.Time `json:"generated_at"`
	Tools       []Entry   `json:"tools"`
}

// Entry is one bundled tool.
type Entry struct {
	Tool   tool.Tool      `json:"tool"`
	File   string         `json:"file"`           // path relative to the payload directory
	Format archive.Format `json:"format"`         // how File is encoded
	SHA1   string         `json:"sha1"`           // digest of the decompressed executable
	Size   int64          `json:"size,omitempty"` // size of File in bytes
}

// NewManifest creates an empty manifest for target.
func NewManifest(target platform.Target, generatedAt time.Time) *Manifest {
	return &Manifest{
		Version:     ManifestVersion,
		BuildID:     uuid.New().String(),
		Target:      target.String(),
		Windows:     target.Windows(),
		GeneratedAt: generatedAt.UTC(),
		Tools:       []Entry{},
	}
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the schema version, the target and every entry. Digests
// are normalized to lowercase.
func (m *Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidManifest, m.Version)
	}

	if len(m.Tools) == 0 {
		return nil
	}

	target, err := platform.ParseTarget(m.Target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if target.Windows() != m.Windows {
		return fmt.Errorf("%w: target %s does not match windows=%t", ErrInvalidManifest, target, m.Windows)
	}

	seen := make(map[tool.Tool]bool, len(m.Tools))
	for i := range m.Tools {
		e := &m.Tools[i]

		if !e.Tool.Valid() {
			return fmt.Errorf("%w: unknown tool %q", ErrInvalidManifest, e.Tool)
		}
		if seen[e.Tool] {
			return fmt.Errorf("%w: duplicate tool %q", ErrInvalidManifest, e.Tool)
		}
		seen[e.Tool] = true

		if !fs.ValidPath(e.File) || e.File == "." || e.File == ManifestName {
			return fmt.Errorf("%w: %s: invalid file %q", ErrInvalidManifest, e.Tool, e.File)
		}
		if _, err := archive.ParseFormat(string(e.Format)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidManifest, e.Tool, err)
		}
		if !binary.IsDigest(e.SHA1) {
			return fmt.Errorf("%w: %s: malformed sha1 %q", ErrInvalidManifest, e.Tool, e.SHA1)
		}
		e.SHA1 = strings.ToLower(e.SHA1)
	}

	return nil
}

// Entry returns the entry for t.
func (m *Manifest) Entry(t tool.Tool) (Entry, bool) {
	for _, e := range m.Tools {
		if e.Tool == t {
			return e, true
		}
	}
	return Entry{}, false
}

// Put adds e or replaces the entry for the same tool, keeping entries in
// canonical tool order.
func (m *Manifest) Put(e Entry) {
	entries := make([]Entry, 0, len(m.Tools)+1)
	for _, t := range tool.All {
		if t == e.Tool {
			entries = append(entries, e)
			continue
		}
		if old, ok := m.Entry(t); ok {
			entries = append(entries, old)
		}
	}
	m.Tools = entries
}

// Marshal encodes the manifest as indented JSON.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the manifest into dir atomically and returns the bytes
// written, which is what a detached signature must cover.
func (m *Manifest) Save(dir string) ([]byte, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	if err := WriteFileAtomic(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}
	return data, nil
}

// WriteFileAtomic writes data to a temporary sibling of path, renames it into
// place and syncs the directory.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	// Directory handles cannot be flushed on Windows.
	if runtime.GOOS == "windows" {
		return nil
	}

	df, err := os.Open(dir)
	if err == nil {
		defer df.Close()
		if err := df.Sync(); err != nil {
			return fmt.Errorf("sync directory: %w", err)
		}
	}

	return nil
}
