package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List configured picture presets",
	RunE:  runPresets,
}

func runPresets(cmd *cobra.Command, args []string) error {
	site, err := loadSite()
	if err != nil {
		return err
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("\n  PRESETS (%s)\n\n", configPath)

	names := make([]string, 0, len(site.Presets))
	for name := range site.Presets {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Preset", "Source", "Width", "Height", "Media"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)

	for _, name := range names {
		p := site.Presets[name]
		for _, src := range p.Sources {
			media := src.Media
			if media == "" {
				media = color.GreenString("(default)")
			}
			table.Append([]string{name, src.Key, dimString(src.Width), dimString(src.Height), media})
		}
	}
	table.Render()

	fmt.Println()
	color.Yellow("  densities: %v  markup: %s\n", site.Densities, site.Markup)
	fmt.Println()
	return nil
}

func dimString(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
