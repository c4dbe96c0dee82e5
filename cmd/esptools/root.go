package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/esptools/internal/config"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

func init() {
	// Keywords match regardless of case
	cobra.EnableCaseInsensitive = true
}

func versionString() string {
	if Commit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// commandList renders every tool keyword for usage and error messages.
func commandList() string {
	descs := make([]string, 0, len(tool.All))
	for _, t := range tool.All {
		descs = append(descs, t.Description())
	}
	return strings.Join(descs, ", ")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "esptools <command> [<args>]",
		Short: "Run the bundled Espressif flashing, signing and eFuse tools",
		Long: titleStyle.Render("esptools") + mutedStyle.Render(" - bundled Espressif tools") + `

Runs esptool, espsecure, espefuse and espidfnvs from copies embedded in
this binary. Tools are extracted once into the user cache and reused.

Where <command> is one of ` + commandList() + `.
All arguments after the command are passed to the tool unchanged, so
global flags must come from ESPTOOLS_* environment variables when
running a tool.`,
		Version:       versionString(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,

		// "esptools bogus --port x" must report the command, not the flag
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},

		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command `%s`; must be one of %s", args[0], commandList())
			}
			return cmd.Help()
		},
	}
	root.SetVersionTemplate("esptools {{.Version}}\n")

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/esptools/config.lua)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show full error details")

	for _, t := range tool.All {
		root.AddCommand(newToolCmd(a, t))
	}
	root.AddCommand(newListCmd(a))
	root.AddCommand(newMountCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	code := 1
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Err == nil {
			return code
		}
	}

	fmt.Fprintln(a.stderr, errorStyle.Render("Error:")+" "+config.FormatError(err, a.verbose))
	return code
}
