package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

func newMountCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "mount [--all | <command>...]",
		Short: "Extract tools into the cache and print their paths",
		Long: `Extract tools into the cache and print "<tool> <path>" for each one.

Tools are named by tool name or command keyword. With --all, or with no
arguments, every enabled tool is mounted. Files stay cached afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			enabled, err := a.enabled()
			if err != nil {
				return err
			}

			tools := enabled
			if !all && len(args) > 0 {
				if tools, err = resolveTools(args); err != nil {
					return err
				}
				for _, t := range tools.Tools() {
					if !enabled.Contains(t) {
						return fmt.Errorf("%s is not bundled or is disabled", t)
					}
				}
			}

			handle, err := a.mounter.MountAll(tools.Tools())
			if err != nil {
				return fmt.Errorf("failed to mount tools: %w", err)
			}
			defer handle.Release()

			for _, mt := range handle.Tools() {
				fmt.Fprintf(a.stdout, "%s %s\n", mt.Tool, mt.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "mount every enabled tool")
	return cmd
}

// resolveTools accepts tool names and command keywords.
func resolveTools(args []string) (tool.Set, error) {
	var set tool.Set
	for _, arg := range args {
		if t, err := tool.Parse(arg); err == nil {
			set.Add(t)
			continue
		}
		found := false
		for _, t := range tool.All {
			if t.Matches(arg) {
				set.Add(t)
				found = true
				break
			}
		}
		if !found {
			return tool.Set{}, fmt.Errorf("unknown tool `%s`; must be one of %s", arg, commandList())
		}
	}
	return set, nil
}
