package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"epubfit/internal/profile"
	"epubfit/internal/state"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the available device profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		last, err := state.New(a.cfg.Paths.StateDir).LastProfile()
		if err != nil {
			a.logger.Warn("could not read last profile", "error", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderProfiles(a.table.List(), last))
		return nil
	},
}

var profileColumns = []column{
	{},
	{title: "ID"},
	{title: "Name"},
	{title: "Max size", right: true},
	{title: "Gray levels", right: true},
	{title: "Text rules", right: true},
	{title: "Removals"},
}

func renderProfiles(profiles []profile.Profile, active string) string {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		mark := ""
		if p.ID == active {
			mark = "*"
		}
		size := "-"
		if p.ResizeEnabled() {
			size = fmt.Sprintf("%dx%d", p.MaxWidth, p.MaxHeight)
		}
		levels := "-"
		if l := p.Levels(); l > 0 {
			levels = fmt.Sprintf("%d", l)
		}
		rows = append(rows, []string{
			mark,
			p.ID,
			p.Name,
			size,
			levels,
			fmt.Sprintf("%d", len(p.TextRules)),
			strings.Join(p.RemovePaths, ", "),
		})
	}
	return renderTable(profileColumns, rows)
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
