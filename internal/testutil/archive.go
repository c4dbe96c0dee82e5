package testutil

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// File is a named archive entry used to build fixtures. Entries keep their
// order so tests can depend on which match comes first.
type File struct {
	Name    string
	Content string
	Dir     bool
}

// ZipBytes builds an in-memory ZIP archive holding files.
func ZipBytes(t *testing.T, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, f := range files {
		name := f.Name
		if f.Dir && name[len(name)-1] != '/' {
			name += "/"
		}
		w, err := zipWriter.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", f.Name, err)
		}
		if f.Dir {
			continue
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", f.Name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}

	return buf.Bytes()
}

// TarGzBytes builds an in-memory TAR.GZ archive holding files.
func TarGzBytes(t *testing.T, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, f := range files {
		header := &tar.Header{
			Name:     f.Name,
			Mode:     0755,
			Size:     int64(len(f.Content)),
			Typeflag: tar.TypeReg,
		}
		if f.Dir {
			header.Typeflag = tar.TypeDir
			header.Size = 0
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", f.Name, err)
		}
		if f.Dir {
			continue
		}
		if _, err := tarWriter.Write([]byte(f.Content)); err != nil {
			t.Fatalf("failed to write content for %s: %v", f.Name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gzipWriter.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}

	return buf.Bytes()
}

// GzipBytes gzip-compresses content.
func GzipBytes(t *testing.T, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write gzip content: %v", err)
	}
	if err := gzipWriter.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}

	return buf.Bytes()
}
