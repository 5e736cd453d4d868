package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picset/picset/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "picset",
	Short: "Responsive picture set generator",
	Long: color.New(color.FgCyan, color.Bold).Sprint(`
        _                 _
  _ __ (_) ___  ___   ___| |_
 | '_ \| |/ __|/ _ \/ __| __|
 | |_) | | (__|  __/\__ \ |_
 | .__/|_|\___|\___||___/\__|
 |_|
`) + `
Responsive picture set generator

Expands picture presets into crop-to-fill image variants with
pixel-density fanout, and emits the matching HTML markup.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "picset.yaml", "Site configuration file")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}

func loadSite() (*config.Site, error) {
	site, err := config.LoadSite(configPath)
	if err != nil {
		return nil, fmt.Errorf("load site config %s: %w", configPath, err)
	}
	return &site, nil
}
