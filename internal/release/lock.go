package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// LockName is the lock file created inside a payload directory while it is rebuilt.
	LockName = ".bundle.lock"

	// StaleLockThreshold is the age after which a lock is assumed abandoned.
	StaleLockThreshold = 30 * time.Minute
)

// ErrLocked indicates another bundler is writing the same payload directory.
var ErrLocked = errors.New("payload directory is locked by another bundle run")

// Lock is an exclusive claim on a payload directory.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock claims dir. The lock file is created with O_EXCL; a lock older
// than StaleLockThreshold is replaced once.
func AcquireLock(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create payload directory: %w", err)
	}

	lockPath := filepath.Join(dir, LockName)

	file, err := createExclusive(lockPath)
	if errors.Is(err, os.ErrExist) && lockIsStale(lockPath) {
		os.Remove(lockPath)
		file, err = createExclusive(lockPath)
	}
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	owner := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(owner); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
}

// Release removes the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

func lockIsStale(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > StaleLockThreshold
}
