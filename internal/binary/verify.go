package binary

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// DigestLength is the length of a hex-encoded SHA-1 digest.
const DigestLength = 40

// ErrDigestMismatch indicates the computed digest does not match the expected one.
var ErrDigestMismatch = errors.New("digest mismatch")

// DigestError provides details about a digest verification failure.
// It wraps ErrDigestMismatch so callers can use errors.Is for classification.
type DigestError struct {
	Name     string
	Expected string
	Got      string
}

// Error returns a human-readable description of the mismatch.
func (e *DigestError) Error() string {
	return fmt.Sprintf("digest mismatch for %s:\nactual:   %s\nexpected: %s", e.Name, e.Got, e.Expected)
}

// Unwrap returns ErrDigestMismatch.
func (e *DigestError) Unwrap() error { return ErrDigestMismatch }

// Verifier handles digest verification of extracted executables
type Verifier struct {
	fs afero.Fs
}

// NewVerifier creates a new verifier
func NewVerifier(fs afero.Fs) *Verifier {
	return &Verifier{fs: fs}
}

// VerifyDigest compares two hex digests case-insensitively.
func (v *Verifier) VerifyDigest(name, expected, got string) error {
	if !strings.EqualFold(expected, got) {
		return &DigestError{Name: name, Expected: expected, Got: got}
	}
	return nil
}

// VerifyFile re-hashes the file at path and compares it against expected.
func (v *Verifier) VerifyFile(path, expected string) error {
	actual, err := HashFile(v.fs, path)
	if err != nil {
		return fmt.Errorf("calculate digest: %w", err)
	}
	return v.VerifyDigest(path, expected, actual)
}

// HashFile calculates the SHA-1 digest of a file
func HashFile(fs afero.Fs, path string) (string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()

	return CopyHashed(io.Discard, file)
}

// IsDigest reports whether s looks like a hex-encoded SHA-1 digest.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
