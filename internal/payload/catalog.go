// Package payload reads the tool bundle compiled into the binary.
//
// A payload directory holds manifest.json, one encoded file per tool and
// optionally manifest.json.asc, an armored detached OpenPGP signature over
// the manifest bytes. The manifest pins the SHA-1 of every decompressed
// executable, so a verified manifest transitively authenticates the tools.
package payload

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/esptools/internal/archive"
	"github.com/ZebulonRouseFrantzich/esptools/internal/binary"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Keyring, when set, requires manifest.json.asc and verifies it.
	Keyring openpgp.KeyRing
}

// Catalog maps tools to their bundled bytes and expected digests.
type Catalog struct {
	fsys     fs.FS
	manifest *Manifest
	signed   bool
}

// Load reads and validates the manifest at the root of fsys.
func Load(fsys fs.FS, opts LoadOptions) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	signed := false
	if opts.Keyring != nil {
		sig, err := fs.ReadFile(fsys, SignatureName)
		if err != nil {
			return nil, fmt.Errorf("%w: read manifest signature: %w", binary.ErrSignature, err)
		}
		if err := binary.VerifySignature(opts.Keyring, data, sig); err != nil {
			return nil, fmt.Errorf("verify manifest: %w", err)
		}
		signed = true
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	return &Catalog{fsys: fsys, manifest: m, signed: signed}, nil
}

// Digest returns the expected SHA-1 of t's executable.
func (c *Catalog) Digest(t tool.Tool) (string, bool) {
	e, ok := c.manifest.Entry(t)
	if !ok {
		return "", false
	}
	return e.SHA1, true
}

// Open returns the decompressed executable bytes of t. Containers are
// searched for t's platform file name.
func (c *Catalog) Open(t tool.Tool) (io.ReadCloser, error) {
	e, ok := c.manifest.Entry(t)
	if !ok {
		return nil, fmt.Errorf("%s is not bundled", t)
	}

	data, err := fs.ReadFile(c.fsys, e.File)
	if err != nil {
		return nil, fmt.Errorf("read bundled %s: %w", e.File, err)
	}

	rc, err := archive.Open(e.Format, data, t.FileName(c.manifest.Windows))
	if err != nil {
		return nil, fmt.Errorf("open bundled %s: %w", e.File, err)
	}
	return rc, nil
}

// Tools returns the bundled tools in canonical order.
func (c *Catalog) Tools() []tool.Tool {
	tools := make([]tool.Tool, 0, len(c.manifest.Tools))
	for _, t := range tool.All {
		if _, ok := c.manifest.Entry(t); ok {
			tools = append(tools, t)
		}
	}
	return tools
}

// Set returns the bundled tools as a tool.Set.
func (c *Catalog) Set() tool.Set {
	return tool.NewSet(c.Tools()...)
}

// Entry returns the manifest entry of t.
func (c *Catalog) Entry(t tool.Tool) (Entry, bool) {
	return c.manifest.Entry(t)
}

// Windows reports whether the bundled executables are Windows binaries.
func (c *Catalog) Windows() bool {
	return c.manifest.Windows
}

// Target returns the release target the payload was built for. It is empty
// for an unbundled build.
func (c *Catalog) Target() string {
	return c.manifest.Target
}

// Signed reports whether the manifest signature was verified.
func (c *Catalog) Signed() bool {
	return c.signed
}

// Manifest returns the underlying manifest.
func (c *Catalog) Manifest() *Manifest {
	return c.manifest
}
