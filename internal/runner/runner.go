// Package runner launches mounted tool executables as child processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
)

// ErrSpawnFailed indicates the executable could not be located or started.
var ErrSpawnFailed = errors.New("spawn failed")

type options struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger logging.Logger
}

// Option customizes how a tool is run.
type Option func(*options)

// WithStdio replaces the inherited standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdin = stdin
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithLogger logs process start and termination.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes path with args passed verbatim (no shell) and waits for it to
// exit. It returns the child's exit code; a non-zero code is not an error.
// The parent's environment, working directory and standard streams are
// inherited; the streams can be overridden.
//
// ctx may carry a deadline; when it expires the child is killed and the
// context error is returned.
func Run(ctx context.Context, path string, args []string, opts ...Option) (int, error) {
	o := options{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = o.stdin
	cmd.Stdout = o.stdout
	cmd.Stderr = o.stderr

	logger.Info("executing", "path", path, "args", len(args))

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, path, err)
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		return -1, fmt.Errorf("run %s: %w", path, ctx.Err())
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return -1, fmt.Errorf("wait %s: %w", path, err)
	}

	code := cmd.ProcessState.ExitCode()
	logger.Info("exited", "path", path, "code", code)

	return code, nil
}
