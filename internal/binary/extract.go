package binary

import (
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// CopyBufferSize is the chunk size used when streaming an executable.
const CopyBufferSize = 32 * 1024

// ErrIO marks filesystem and stream failures during copy or extraction.
var ErrIO = errors.New("i/o failure")

// CopyHashed copies src to dst chunk by chunk, feeding every chunk to a SHA-1
// accumulator. It returns the lowercase hex digest once src reports EOF.
// On any read or write failure no digest is returned.
func CopyHashed(dst io.Writer, src io.Reader) (string, error) {
	hasher := sha1.New() //nolint:gosec
	buf := make([]byte, CopyBufferSize)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("%w: write: %w", ErrIO, werr)
			}
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read: %w", ErrIO, err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Extractor materializes executables on a filesystem
type Extractor struct {
	fs      afero.Fs
	windows bool
}

// NewExtractor creates a new extractor. When windows is false extracted
// files are marked executable.
func NewExtractor(fs afero.Fs, windows bool) *Extractor {
	return &Extractor{fs: fs, windows: windows}
}

// ExtractTo streams src into destPath and returns the SHA-1 digest of the
// written bytes. The content goes to a temporary file next to destPath and is
// renamed into place, so a concurrent reader never sees a partial file.
//
// When expected is not empty the digest is checked before the rename; on
// mismatch the temporary file is removed, destPath is left untouched and a
// *DigestError is returned.
func (e *Extractor) ExtractTo(destPath string, src io.Reader, expected string) (string, error) {
	destDir := filepath.Dir(destPath)
	if err := e.fs.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create dest dir: %w", ErrIO, err)
	}

	tmpFile, err := afero.TempFile(e.fs, destDir, "."+filepath.Base(destPath)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrIO, err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			_ = e.fs.Remove(tmpPath)
		}
	}()

	digest, err := CopyHashed(tmpFile, src)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(destPath), err)
	}

	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("%w: close temp file: %w", ErrIO, err)
	}

	if expected != "" && !strings.EqualFold(expected, digest) {
		return "", &DigestError{Name: filepath.Base(destPath), Expected: expected, Got: digest}
	}

	if !e.windows {
		if err := SetExecutable(e.fs, tmpPath); err != nil {
			return "", err
		}
	}

	if err := e.fs.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("%w: rename temp file: %w", ErrIO, err)
	}

	cleanupNeeded = false
	return digest, nil
}

// SetExecutable sets executable permissions on a file
func SetExecutable(fs afero.Fs, path string) error {
	// rwxr-xr-x
	if err := fs.Chmod(path, 0755); err != nil {
		return fmt.Errorf("%w: set executable: %w", ErrIO, err)
	}
	return nil
}
