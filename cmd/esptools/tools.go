package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/esptools/internal/runner"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// newToolCmd forwards everything after the keyword to t.
func newToolCmd(a *app, t tool.Tool) *cobra.Command {
	keywords := t.Keywords()
	return &cobra.Command{
		Use:                keywords[0] + " [<args>]",
		Aliases:            append(keywords[1:], t.String()),
		Short:              fmt.Sprintf("Run %s", t),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd.Context(), t, args)
		},
	}
}

func (a *app) runTool(ctx context.Context, t tool.Tool, args []string) error {
	if err := a.open(ctx); err != nil {
		return err
	}

	enabled, err := a.enabled()
	if err != nil {
		return err
	}
	if !enabled.Contains(t) {
		if !a.catalog.Set().Contains(t) {
			return fmt.Errorf("%s is not bundled in this build", t)
		}
		return fmt.Errorf("%s is disabled by configuration", t)
	}

	handle, err := a.mounter.MountAll([]tool.Tool{t})
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", t, err)
	}
	defer handle.Release()

	mounted, err := handle.Tool(t)
	if err != nil {
		return err
	}

	code, err := mounted.Exec(ctx, args, runner.WithStdio(a.stdin, a.stdout, a.stderr))
	if err != nil {
		return fmt.Errorf("failed to execute `%s`: %w", t, err)
	}
	if code != 0 {
		return &ExitError{Code: toolExitCode(code)}
	}
	return nil
}

// toolExitCode maps a child's status to ours. A child killed by a signal
// reports -1, which is passed on as 1.
func toolExitCode(code int) int {
	if code < 0 {
		return 1
	}
	return code
}
