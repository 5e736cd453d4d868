package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picset/picset/internal/markup"
	"github.com/picset/picset/internal/render"
	"github.com/picset/picset/internal/variant"
)

var (
	renderMarkup    string
	renderOverrides map[string]string
	renderAttrs     map[string]string
)

var renderCmd = &cobra.Command{
	Use:   "render <preset> <image>",
	Short: "Render one picture and print its markup",
	Long: `Generate every variant of one image for a preset and print the
resulting HTML to stdout. Variants are cached by content digest, so
re-rendering an unchanged image touches no pixels.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderMarkup, "markup", "m", "", "Markup mode (default: site config)")
	renderCmd.Flags().StringToStringVar(&renderOverrides, "override", nil, "Per-source image override, key=path")
	renderCmd.Flags().StringToStringVar(&renderAttrs, "attr", nil, "Extra HTML attribute, name=value")
}

func runRender(cmd *cobra.Command, args []string) error {
	presetName, image := args[0], args[1]

	site, err := loadSite()
	if err != nil {
		return err
	}

	mode := renderMarkup
	if mode == "" {
		mode = site.Markup
	}
	if !markup.Valid(mode) {
		return fmt.Errorf("unknown markup mode %q (supported: %v)", mode, markup.Modes())
	}

	if err := variant.Startup(); err != nil {
		return fmt.Errorf("initialize image runtime: %w", err)
	}
	defer variant.Shutdown()

	logger := log.New(os.Stderr, "picset: ", 0)
	generator := variant.NewGenerator(site.SourceRoot, site.OutputRoot, site.OutputSubdir, nil, logger)
	renderer := render.New(render.Options{
		Presets:   site.Presets,
		Densities: site.Densities,
		Generator: generator,
		Logger:    logger,
	})

	result, err := renderer.Render(cmd.Context(), presetName, image, renderOverrides)
	if err != nil {
		return err
	}

	html, err := markup.Emit(mode, result, renderAttrs)
	if err != nil {
		return err
	}
	fmt.Println(html)

	if skipped := result.Skipped(); skipped > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %d of %d variants skipped\n", skipped, len(result.Variants))
	}
	return nil
}
