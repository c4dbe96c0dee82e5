// Package archive locates a single tool entry inside the compressed
// containers that vendor releases and esptools payloads are shipped in.
//
// Two container shapes are supported. ZIP archives are random access: the
// central directory is parsed once and entries are matched by name suffix,
// since release archives nest tools under a versioned directory. TAR inside
// GZIP is forward-only: entries are visited in stream order and matched by
// exact base name.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format identifies a container or compression format.
type Format string

const (
	// FormatGzip is a single gzip-compressed file.
	FormatGzip Format = "gzip"
	// FormatZip is a ZIP archive.
	FormatZip Format = "zip"
	// FormatTarGz is a TAR stream inside GZIP.
	FormatTarGz Format = "tar.gz"
)

var (
	// ErrEntryNotFound indicates no entry matched the requested name.
	ErrEntryNotFound = errors.New("entry not found in archive")

	// ErrContainerMalformed indicates the container metadata could not be parsed.
	ErrContainerMalformed = errors.New("malformed archive")
)

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatGzip, FormatZip, FormatTarGz:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported archive format: %q", s)
	}
}

// FormatOf guesses the container format from a file or URL name.
func FormatOf(name string) (Format, error) {
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(name, ".gz"):
		return FormatGzip, nil
	default:
		return "", fmt.Errorf("unsupported archive format: %s", name)
	}
}

// Open returns a reader over the decompressed content of the entry called
// name inside data. For FormatGzip the whole stream is the entry and name is
// ignored.
func Open(format Format, data []byte, name string) (io.ReadCloser, error) {
	switch format {
	case FormatGzip:
		return OpenGzip(bytes.NewReader(data))
	case FormatZip:
		zr, err := OpenZip(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		return zr.Find(name)
	case FormatTarGz:
		return FindTarGz(bytes.NewReader(data), name)
	default:
		return nil, fmt.Errorf("unsupported archive format: %q", format)
	}
}
