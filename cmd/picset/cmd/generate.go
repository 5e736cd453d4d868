package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/picset/picset/internal/config"
	"github.com/picset/picset/internal/render"
	"github.com/picset/picset/internal/variant"
	"github.com/picset/picset/internal/watch"
)

var (
	generatePresets []string
	generateWatch   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <image>...",
	Short: "Generate variants for images across presets",
	Long: `Generate the full variant set for one or more source images. By
default every configured preset is used; --watch keeps running and
re-generates an image whenever its source file changes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&generatePresets, "preset", "p", nil, "Presets to generate (default: all)")
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Watch the source tree and re-generate on change")
}

type generateRow struct {
	preset    string
	image     string
	variants  int
	cacheHits int
	skipped   int
}

func runGenerate(cmd *cobra.Command, args []string) error {
	site, err := loadSite()
	if err != nil {
		return err
	}

	presetNames, err := selectPresets(site, generatePresets)
	if err != nil {
		return err
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

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("\n  GENERATING %d IMAGE(S) x %d PRESET(S)\n\n", len(args), len(presetNames))

	bar := progressbar.NewOptions(len(args)*len(presetNames),
		progressbar.OptionSetDescription("  Generating variants"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)

	var rows []generateRow
	failed := 0
	for _, image := range args {
		for _, presetName := range presetNames {
			result, err := renderer.Render(cmd.Context(), presetName, image, nil)
			bar.Add(1)
			if err != nil {
				logger.Printf("render failed preset=%s image=%s err=%v", presetName, image, err)
				failed++
				continue
			}
			rows = append(rows, generateRow{
				preset:    presetName,
				image:     image,
				variants:  len(result.Variants),
				cacheHits: result.CacheHits(),
				skipped:   result.Skipped(),
			})
		}
	}
	fmt.Println()
	fmt.Println()

	printGenerateTable(rows)

	if len(rows) > 0 {
		color.New(color.FgGreen).Printf("  ✓ Generated %d picture(s) into %s\n", len(rows), filepath.Join(site.OutputRoot, site.OutputSubdir))
	}
	if failed > 0 {
		color.Red("  ✗ %d picture(s) failed\n", failed)
	}
	fmt.Println()

	if generateWatch {
		return watchAndGenerate(cmd.Context(), site, presetNames, renderer, logger)
	}
	if failed > 0 {
		return fmt.Errorf("%d picture(s) failed", failed)
	}
	return nil
}

func printGenerateTable(rows []generateRow) {
	if len(rows) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Preset", "Image", "Variants", "Cached", "Skipped"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)

	for _, r := range rows {
		skipped := fmt.Sprintf("%d", r.skipped)
		if r.skipped > 0 {
			skipped = color.YellowString("%d", r.skipped)
		}
		table.Append([]string{
			r.preset,
			r.image,
			fmt.Sprintf("%d", r.variants),
			fmt.Sprintf("%d", r.cacheHits),
			skipped,
		})
	}
	table.Render()
	fmt.Println()
}

func selectPresets(site *config.Site, requested []string) ([]string, error) {
	if len(requested) == 0 {
		names := make([]string, 0, len(site.Presets))
		for name := range site.Presets {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) == 0 {
			return nil, fmt.Errorf("no presets configured in %s", configPath)
		}
		return names, nil
	}

	for _, name := range requested {
		if _, ok := site.Presets[name]; !ok {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
	}
	return requested, nil
}

func watchAndGenerate(ctx context.Context, site *config.Site, presetNames []string, renderer *render.Renderer, logger *log.Logger) error {
	// Only shield the output tree when it lives inside the watched root.
	skipDir := ""
	if site.OutputRoot == site.SourceRoot {
		skipDir = site.OutputSubdir
	}

	watcher, err := watch.New(site.SourceRoot, skipDir, 500*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	color.Yellow("  Watching %s for changes (ctrl-c to stop)\n\n", site.SourceRoot)

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case image := <-watcher.Events():
			for _, presetName := range presetNames {
				result, err := renderer.Render(ctx, presetName, image, nil)
				if err != nil {
					color.Red("  ✗ %s / %s: %v\n", presetName, image, err)
					continue
				}
				color.New(color.FgGreen).Printf(
					"  ✓ %s / %s: %d variant(s), %d cached, %d skipped\n",
					presetName, image, len(result.Variants), result.CacheHits(), result.Skipped(),
				)
			}
		}
	}
}
