package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/esptools/internal/archive"
	"github.com/ZebulonRouseFrantzich/esptools/internal/binary"
	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/payload"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// DefaultConcurrency bounds parallel release downloads.
const DefaultConcurrency = 4

// Options selects what Bundle produces.
type Options struct {
	Target platform.Target
	// Tools to bundle. Empty means every tool.
	Tools tool.Set
	// OutDir receives <tool>.gz files and the manifest.
	OutDir string
	// Signer, when set, produces manifest.json.asc.
	Signer *openpgp.Entity
}

// Bundler builds payload directories from vendor releases.
type Bundler struct {
	downloader  *Downloader
	resolve     Resolver
	clock       Clock
	logger      logging.Logger
	concurrency int
}

// BundlerOption configures a Bundler.
type BundlerOption func(*Bundler)

// WithResolver replaces ReleaseFor, e.g. to point at a mirror.
func WithResolver(r Resolver) BundlerOption {
	return func(b *Bundler) { b.resolve = r }
}

// WithClock sets the clock stamping generated_at.
func WithClock(c Clock) BundlerOption {
	return func(b *Bundler) { b.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) BundlerOption {
	return func(b *Bundler) { b.logger = logging.OrNop(l) }
}

// WithConcurrency sets how many releases are downloaded at once. Values
// below 1 select DefaultConcurrency.
func WithConcurrency(n int) BundlerOption {
	return func(b *Bundler) { b.concurrency = n }
}

// NewBundler creates a bundler fetching through d.
func NewBundler(d *Downloader, opts ...BundlerOption) *Bundler {
	b := &Bundler{
		downloader:  d,
		resolve:     ReleaseFor,
		clock:       RealClock{},
		logger:      logging.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.concurrency < 1 {
		b.concurrency = DefaultConcurrency
	}
	return b
}

// group is one release archive and the tools taken from it.
type group struct {
	release Release
	tools   []tool.Tool
}

// Bundle downloads the releases for opts.Tools, writes each tool as a gzip
// file into opts.OutDir and saves the manifest describing them. The returned
// manifest is what was written.
func (b *Bundler) Bundle(ctx context.Context, opts Options) (*payload.Manifest, error) {
	if opts.OutDir == "" {
		return nil, errors.New("output directory is required")
	}
	if _, err := platform.ParseTarget(opts.Target.String()); err != nil {
		return nil, err
	}

	tools := opts.Tools
	if tools.Len() == 0 {
		tools = tool.NewSet(tool.All...)
	}

	groups, err := b.plan(tools, opts.Target)
	if err != nil {
		return nil, err
	}

	lock, err := AcquireLock(ctx, opts.OutDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	manifest := payload.NewManifest(opts.Target, b.clock.Now())
	b.logger.Info("bundling", "target", opts.Target, "tools", tools.String(), "build_id", manifest.BuildID)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, grp := range groups {
		g.Go(func() error {
			archivePath, err := b.downloader.Fetch(gctx, grp.release)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(archivePath)
			if err != nil {
				return fmt.Errorf("read %s: %w", archivePath, err)
			}

			for _, t := range grp.tools {
				entry, err := b.pack(data, grp.release, t, opts)
				if err != nil {
					return err
				}
				mu.Lock()
				manifest.Put(entry)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	message, err := manifest.Save(opts.OutDir)
	if err != nil {
		return nil, err
	}

	if err := b.writeSignature(opts, message); err != nil {
		return nil, err
	}

	b.logger.Info("bundle complete", "dir", opts.OutDir, "tools", len(manifest.Tools), "signed", opts.Signer != nil)
	return manifest, nil
}

// plan resolves every tool and groups tools sharing a release archive,
// keeping the order in which archives are first needed.
func (b *Bundler) plan(tools tool.Set, target platform.Target) ([]*group, error) {
	var groups []*group
	byKey := make(map[string]*group)

	for _, t := range tools.Tools() {
		rel, err := b.resolve(t, target)
		if err != nil {
			return nil, fmt.Errorf("resolve release for %s: %w", t, err)
		}
		grp, ok := byKey[rel.Key()]
		if !ok {
			grp = &group{release: rel}
			byKey[rel.Key()] = grp
			groups = append(groups, grp)
		}
		grp.tools = append(grp.tools, t)
	}

	return groups, nil
}

// pack extracts t from a release archive and stores it as <tool>.gz.
func (b *Bundler) pack(data []byte, rel Release, t tool.Tool, opts Options) (payload.Entry, error) {
	name := t.FileName(opts.Target.Windows())
	src, err := archive.Open(rel.Format, data, name)
	if err != nil {
		return payload.Entry{}, fmt.Errorf("%s in %s: %w", name, rel.URL, err)
	}
	defer src.Close()

	file := string(t) + ".gz"
	destPath := filepath.Join(opts.OutDir, file)

	digest, size, err := writeGzip(destPath, name, src)
	if err != nil {
		return payload.Entry{}, fmt.Errorf("pack %s: %w", t, err)
	}

	b.logger.Info("packed", "tool", t, "sha1", digest, "size", humanize.Bytes(uint64(size)))

	return payload.Entry{
		Tool:   t,
		File:   file,
		Format: archive.FormatGzip,
		SHA1:   digest,
		Size:   size,
	}, nil
}

// writeGzip compresses src into destPath through a temporary file. The
// digest covers the uncompressed bytes, which is what gets mounted.
func writeGzip(destPath, name string, src io.Reader) (string, int64, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+"-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("%w: create temp file: %w", binary.ErrIO, err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	gw, err := gzip.NewWriterLevel(tmpFile, gzip.BestCompression)
	if err != nil {
		return "", 0, err
	}
	gw.Name = name

	digest, err := binary.CopyHashed(gw, src)
	if err != nil {
		return "", 0, err
	}
	if err := gw.Close(); err != nil {
		return "", 0, fmt.Errorf("%w: finish gzip stream: %w", binary.ErrIO, err)
	}

	info, err := tmpFile.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("%w: stat temp file: %w", binary.ErrIO, err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", 0, fmt.Errorf("%w: close temp file: %w", binary.ErrIO, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", 0, fmt.Errorf("%w: rename temp file: %w", binary.ErrIO, err)
	}

	cleanupNeeded = false
	return digest, info.Size(), nil
}

// writeSignature signs the saved manifest, or removes a signature left by an
// earlier signed run so it cannot be mistaken for a signature of this one.
func (b *Bundler) writeSignature(opts Options, message []byte) error {
	sigPath := filepath.Join(opts.OutDir, payload.SignatureName)

	if opts.Signer == nil {
		if err := os.Remove(sigPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale signature: %w", err)
		}
		return nil
	}

	var sig bytes.Buffer
	if err := binary.Sign(&sig, opts.Signer, message); err != nil {
		return err
	}
	if err := payload.WriteFileAtomic(sigPath, sig.Bytes(), 0644); err != nil {
		return fmt.Errorf("save signature: %w", err)
	}
	return nil
}
