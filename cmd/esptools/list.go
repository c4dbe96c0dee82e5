package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show bundled tools and where they are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			return a.list()
		},
	}
}

func (a *app) list() error {
	enabled, err := a.enabled()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(tool.All))
	for _, t := range tool.All {
		entry, ok := a.catalog.Entry(t)
		if !ok {
			rows = append(rows, []string{t.String(), strings.Join(t.Keywords(), ", "), "not bundled", "", "", ""})
			continue
		}

		state := "enabled"
		if !enabled.Contains(t) {
			state = "disabled"
		}

		cached := "not extracted"
		if path, err := a.session.CachePath(t); err == nil {
			if ok, _ := afero.Exists(a.fs, path); ok {
				cached = path
			}
		}

		rows = append(rows, []string{
			t.String(),
			strings.Join(t.Keywords(), ", "),
			state,
			humanize.Bytes(uint64(entry.Size)),
			entry.SHA1[:12],
			cached,
		})
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("TOOL", "COMMANDS", "STATE", "SIZE", "SHA1", "CACHE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(1)
			switch {
			case row == table.HeaderRow:
				return style.Inherit(titleStyle)
			case col == 1:
				return style.Inherit(cmdStyle)
			}
			return style
		})

	fmt.Fprintln(a.stdout, tbl.Render())

	target := a.catalog.Target()
	if target == "" {
		target = "none"
	}
	fmt.Fprintln(a.stdout, mutedStyle.Render(fmt.Sprintf("target: %s, build: %s, signed: %t",
		target, a.catalog.Manifest().BuildID, a.catalog.Signed())))
	return nil
}
