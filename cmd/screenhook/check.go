// ABOUTME: check subcommand: loads and compiles hooks, prints them as a table
// ABOUTME: Exits non-zero when any hook pattern is invalid

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mauromedda/screenhook/internal/config"
	"github.com/mauromedda/screenhook/internal/hooks"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the hook config and list its hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			engine, err := hooks.NewEngine(cfg.Hooks)
			if err != nil {
				return err
			}

			path := c.configPath
			if path == "" {
				path = config.DefaultConfigFile()
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderHooks(path, engine.Hooks()))
			return err
		},
	}
}

func renderHooks(path string, defs []config.HookDef) string {
	var b strings.Builder
	if len(defs) == 0 {
		fmt.Fprintf(&b, "%s: no hooks configured\n", path)
		return b.String()
	}

	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		cooldown := "-"
		if d.CooldownMS != nil {
			cooldown = d.Cooldown().String()
		}
		rows = append(rows, []string{d.Name, d.Regex, cooldown, d.Command})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "REGEX", "COOLDOWN", "COMMAND").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintf(&b, "%s: %s\n", path, okStyle.Render(fmt.Sprintf("%d hooks OK", len(defs))))
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
