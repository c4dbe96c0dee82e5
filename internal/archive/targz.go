package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/gzip"
)

// OpenGzip returns a reader over a single gzip-compressed stream.
func OpenGzip(r io.Reader) (io.ReadCloser, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: create gzip reader: %w", ErrContainerMalformed, err)
	}
	return gzipReader, nil
}

// tarEntry reads one tar entry and closes the underlying gzip stream.
type tarEntry struct {
	io.Reader
	gzip io.Closer
}

func (e *tarEntry) Close() error {
	return e.gzip.Close()
}

// FindTarGz scans a TAR.GZ stream for the first regular file whose base name
// equals name exactly and returns a reader positioned at its content.
// The stream is consumed forward-only; entries before the match are skipped.
func FindTarGz(r io.Reader, name string) (io.ReadCloser, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: create gzip reader: %w", ErrContainerMalformed, err)
	}

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			gzipReader.Close()
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		if err != nil {
			gzipReader.Close()
			return nil, fmt.Errorf("%w: read tar header: %w", ErrContainerMalformed, err)
		}

		if header.Typeflag == tar.TypeReg && path.Base(header.Name) == name {
			return &tarEntry{Reader: tarReader, gzip: gzipReader}, nil
		}
	}
}
