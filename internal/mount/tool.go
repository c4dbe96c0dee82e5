package mount

import (
	"context"

	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/runner"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// MountedTool is a tool whose executable is present in the cache.
type MountedTool struct {
	Tool tool.Tool
	Path string

	logger logging.Logger
}

// Exec runs the tool with args passed verbatim and returns its exit code.
// Standard streams are inherited unless overridden through opts.
func (m *MountedTool) Exec(ctx context.Context, args []string, opts ...runner.Option) (int, error) {
	logger := logging.OrNop(m.logger)
	logger.Debug("invoking tool", "tool", m.Tool, "path", m.Path)

	opts = append([]runner.Option{runner.WithLogger(logger)}, opts...)
	return runner.Run(ctx, m.Path, args, opts...)
}
