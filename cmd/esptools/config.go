package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/esptools/internal/config"
	"github.com/ZebulonRouseFrantzich/esptools/internal/payload"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the esptools config file",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

// configFilePath resolves --config, then ESPTOOLS_CONFIG, then the default.
func (a *app) configFilePath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	if env := a.getenv(config.EnvConfig); env != "" {
		return env, nil
	}
	return config.DefaultPath()
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file documenting every option",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFilePath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config file: %w", err)
			}

			code, err := config.NewGenerator().Generate(config.Default())
			if err != nil {
				return err
			}
			if err := payload.WriteFileAtomic(path, []byte(code), 0644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as Lua",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd.Context()); err != nil {
				return err
			}
			code, err := config.NewGenerator().Generate(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, code)
			return nil
		},
	}
}
