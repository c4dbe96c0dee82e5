package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 3
	// DefaultBackoff is the delay before the first retry. It doubles per attempt.
	DefaultBackoff = time.Second
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "esptools/1.0"
)

// StatusError is returned for a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status code: %d", e.URL, e.Code)
}

// temporary reports whether retrying may help.
func (e *StatusError) temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Downloader fetches release archives into a local cache with retries.
type Downloader struct {
	client    *http.Client
	cacheDir  string
	userAgent string
	retries   int
	backoff   time.Duration
	logger    logging.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// WithRetries sets how many times a failed download is retried.
func WithRetries(n int) DownloaderOption {
	return func(d *Downloader) { d.retries = n }
}

// WithBackoff sets the delay before the first retry.
func WithBackoff(b time.Duration) DownloaderOption {
	return func(d *Downloader) { d.backoff = b }
}

// WithDownloadLogger sets the logger.
func WithDownloadLogger(l logging.Logger) DownloaderOption {
	return func(d *Downloader) { d.logger = logging.OrNop(l) }
}

// NewDownloader creates a new downloader caching into cacheDir.
func NewDownloader(cacheDir string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// GitHub release assets redirect to object storage
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
		backoff:   DefaultBackoff,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CachePath returns where rel is stored: cache/{project}/{version}/{filename}.
func (d *Downloader) CachePath(rel Release) string {
	return filepath.Join(d.cacheDir, rel.Project, rel.Version, path.Base(rel.URL))
}

// Fetch returns the cached archive for rel, downloading it first when the
// cache has no non-empty copy.
func (d *Downloader) Fetch(ctx context.Context, rel Release) (string, error) {
	cachePath := d.CachePath(rel)

	if fileExists(cachePath) {
		d.logger.Debug("release cached", "url", rel.URL, "path", cachePath)
		return cachePath, nil
	}

	if err := d.DownloadToFile(ctx, rel.URL, cachePath); err != nil {
		return "", fmt.Errorf("download %s %s: %w", rel.Project, rel.Version, err)
	}

	return cachePath, nil
}

// DownloadToFile downloads a URL to a specific file path
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := d.backoff << uint(attempt-1)
			d.logger.Warn("retrying download", "url", url, "attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.temporary() {
			return err
		}
	}

	return fmt.Errorf("download failed after %d retries: %w", d.retries, lastErr)
}

// downloadOnce performs a single download attempt
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, Code: resp.StatusCode}
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(destDir, "."+filepath.Base(destPath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	// Close before rename
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	d.logger.Info("downloaded", "url", url, "size", humanize.Bytes(uint64(n)))
	return nil
}

// fileExists checks if a file exists and is not empty
func fileExists(name string) bool {
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
