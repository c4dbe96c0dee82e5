package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Zip indexes the entries of a ZIP archive.
type Zip struct {
	reader *zip.Reader
}

// OpenZip parses the central directory of a ZIP archive.
func OpenZip(r io.ReaderAt, size int64) (*Zip, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: read zip directory: %w", ErrContainerMalformed, err)
	}
	return &Zip{reader: reader}, nil
}

// Names returns the entry names in central-directory order.
func (z *Zip) Names() []string {
	names := make([]string, 0, len(z.reader.File))
	for _, f := range z.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// Lookup returns the name of the first entry ending with suffix.
func (z *Zip) Lookup(suffix string) (string, bool) {
	for _, f := range z.reader.File {
		if strings.HasSuffix(f.Name, suffix) {
			return f.Name, true
		}
	}
	return "", false
}

// Find opens the first entry whose name ends with suffix. Release archives
// nest tools under a directory such as "esptool-v4.8.1-linux-amd64/", so a
// suffix match is used instead of an exact one.
func (z *Zip) Find(suffix string) (io.ReadCloser, error) {
	for _, f := range z.reader.File {
		if !strings.HasSuffix(f.Name, suffix) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrContainerMalformed, f.Name, err)
		}
		return rc, nil
	}
	return nil, fmt.Errorf("%w: no entry ending with %q", ErrEntryNotFound, suffix)
}
