// Package mount materializes bundled tools in the per-user cache and keeps
// track of where each one lives.
//
// A Session is the mount table: it maps each tool to the path its executable
// was extracted to. The path embeds the tool's expected digest
// (<cache>/<sha1>/<file-name>), so a file found there is trusted without
// re-hashing and different bundles never collide. Files are never deleted;
// unmounting only forgets the table entries.
//
// Session is safe for concurrent use. The whole check-then-extract sequence
// runs under one mutex, so concurrent callers extract a tool at most once.
package mount

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/ZebulonRouseFrantzich/esptools/internal/binary"
	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// AppName names the application directory inside the user cache.
const AppName = "esptools"

var (
	// ErrMountFailed indicates the cache directory could not be resolved or created.
	ErrMountFailed = errors.New("mount failed")

	// ErrUnknownTool indicates the bundle carries no digest for the tool.
	ErrUnknownTool = errors.New("tool not bundled")
)

// Bundle supplies the expected digest and the decompressed executable bytes
// of each bundled tool.
type Bundle interface {
	Digest(t tool.Tool) (string, bool)
	Open(t tool.Tool) (io.ReadCloser, error)
}

// Options configures a Session.
type Options struct {
	// CacheDir is the cache root. Defaults to <user cache dir>/esptools.
	CacheDir string
	// Fs is the filesystem tools are extracted to. Defaults to the OS filesystem.
	Fs afero.Fs
	// Windows selects .exe file names and skips permission changes.
	Windows bool
	// VerifyCache re-hashes files found in the cache and re-extracts them
	// on mismatch instead of trusting the digest-derived path.
	VerifyCache bool
	// Logger receives mount events.
	Logger logging.Logger
}

// Session is a process-local mount table
type Session struct {
	mu sync.Mutex

	bundle      Bundle
	cacheDir    string
	fs          afero.Fs
	windows     bool
	verifyCache bool
	extractor   *binary.Extractor
	verifier    *binary.Verifier
	logger      logging.Logger

	mounts map[tool.Tool]string
}

// NewSession creates an empty mount session over bundle.
func NewSession(bundle Bundle, opts Options) (*Session, error) {
	if bundle == nil {
		return nil, fmt.Errorf("bundle is required")
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	return &Session{
		bundle:      bundle,
		cacheDir:    opts.CacheDir,
		fs:          fsys,
		windows:     opts.Windows,
		verifyCache: opts.VerifyCache,
		extractor:   binary.NewExtractor(fsys, opts.Windows),
		verifier:    binary.NewVerifier(fsys),
		logger:      logging.OrNop(opts.Logger),
		mounts:      make(map[tool.Tool]string),
	}, nil
}

// DefaultCacheDir returns <user cache dir>/esptools.
func DefaultCacheDir() (string, error) {
	userCache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve user cache directory: %w", ErrMountFailed, err)
	}
	return filepath.Join(userCache, AppName), nil
}

// Mount ensures t's executable exists in the cache and records it.
// Repeated calls return the recorded path without touching the bundle.
func (s *Session) Mount(t tool.Tool) (*MountedTool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path, ok := s.mounts[t]; ok {
		return s.mounted(t, path), nil
	}

	digest, ok := s.bundle.Digest(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, t)
	}

	path, err := s.pathFor(t, digest)
	if err != nil {
		return nil, err
	}

	cached, err := s.isCached(path, digest)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", t, err)
	}

	if cached {
		s.logger.Debug("cache hit", "tool", t, "path", path)
	} else if err := s.extract(t, path, digest); err != nil {
		return nil, fmt.Errorf("mount %s: %w", t, err)
	}

	s.mounts[t] = path
	s.logger.Info("mounted tool", "tool", t, "path", path)

	return s.mounted(t, path), nil
}

// Path returns the mounted path of t.
func (s *Session) Path(t tool.Tool) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.mounts[t]
	return path, ok
}

// Mounted returns the mounted tools in canonical order.
func (s *Session) Mounted() []tool.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tools []tool.Tool
	for _, t := range tool.All {
		if _, ok := s.mounts[t]; ok {
			tools = append(tools, t)
		}
	}
	return tools
}

// Unmount forgets every mounted tool. Cached files stay on disk for reuse.
func (s *Session) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.mounts)
	s.logger.Debug("unmounted all tools")
}

// forget drops tools from the mount table.
func (s *Session) forget(tools ...tool.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tools {
		delete(s.mounts, t)
	}
}

// CachePath returns where t would be mounted, without mounting it.
func (s *Session) CachePath(t tool.Tool) (string, error) {
	digest, ok := s.bundle.Digest(t)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, t)
	}
	return s.pathFor(t, digest)
}

// pathFor computes <cache>/<digest>/<file-name>.
func (s *Session) pathFor(t tool.Tool, digest string) (string, error) {
	root := s.cacheDir
	if root == "" {
		var err error
		root, err = DefaultCacheDir()
		if err != nil {
			return "", err
		}
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: resolve cache directory: %w", ErrMountFailed, err)
	}

	return filepath.Join(root, digest, t.FileName(s.windows)), nil
}

// isCached reports whether a usable file already exists at path.
func (s *Session) isCached(path, digest string) (bool, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat cached tool: %w", binary.ErrIO, err)
	}

	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s is not a regular file", binary.ErrIO, path)
	}

	if !s.verifyCache {
		return true, nil
	}

	if err := s.verifier.VerifyFile(path, digest); err != nil {
		if !errors.Is(err, binary.ErrDigestMismatch) {
			return false, err
		}
		s.logger.Warn("cached tool failed verification, extracting again", "path", path)
		return false, nil
	}

	return true, nil
}

// extract streams t out of the bundle into path and checks its digest.
func (s *Session) extract(t tool.Tool, path, digest string) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: create cache directory: %w", ErrMountFailed, err)
	}

	src, err := s.bundle.Open(t)
	if err != nil {
		return fmt.Errorf("open bundled %s: %w", t, err)
	}
	defer src.Close()

	got, err := s.extractor.ExtractTo(path, src, digest)
	if err != nil {
		return err
	}

	s.logger.Debug("extracted tool", "tool", t, "path", path, "sha1", got)
	return nil
}

func (s *Session) mounted(t tool.Tool, path string) *MountedTool {
	return &MountedTool{Tool: t, Path: path, logger: s.logger}
}
