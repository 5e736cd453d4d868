// Package variant turns expanded variant requests into files on disk.
//
// Generated files are content-addressed: the filename encodes the source
// digest and the resolved geometry, so the destination directory doubles as
// a durable cache shared by concurrent renders. Writes publish atomically
// (temp file, then rename) so a concurrent reader never observes a
// half-written file under its final name.
package variant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/picset/picset/internal/geometry"
	"github.com/picset/picset/internal/naming"
	"github.com/picset/picset/internal/preset"
)

var ErrSourceUnavailable = errors.New("source image unavailable")

// Generated is one produced (or cache-resolved) variant. Path is the
// slash-separated location relative to the published site root. A zero
// Path means the variant was skipped and must be omitted from markup.
type Generated struct {
	Key      string
	Media    string
	Path     string
	Width    int
	Height   int
	CacheHit bool
}

type Generator struct {
	sourceRoot string
	destRoot   string
	outputDir  string
	resizer    Resizer
	logger     *log.Logger
}

// NewGenerator builds a Generator rooted at sourceRoot for inputs and
// destRoot (the published site root) for outputs. Generated files land
// under outputDir inside destRoot. A nil resizer selects the build's
// default implementation; a nil logger discards diagnostics.
func NewGenerator(sourceRoot, destRoot, outputDir string, resizer Resizer, logger *log.Logger) *Generator {
	if sourceRoot == "" {
		sourceRoot = "."
	}
	if destRoot == "" {
		destRoot = "."
	}
	if outputDir == "" {
		outputDir = "generated"
	}
	if resizer == nil {
		resizer = NewResizer()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Generator{
		sourceRoot: sourceRoot,
		destRoot:   destRoot,
		outputDir:  outputDir,
		resizer:    resizer,
		logger:     logger,
	}
}

// OutputDir reports the subdirectory of the published root that holds
// generated files. Hosts that sweep stale build output must exempt it.
func (g *Generator) OutputDir() string {
	return g.outputDir
}

// Generate resolves one variant request to a file under the output
// directory and returns its published path. If a file already exists under
// the derived name it is reused as-is: existence alone is the cache-hit
// signal, and content is never re-validated.
func (g *Generator) Generate(ctx context.Context, req preset.Variant) (Generated, error) {
	rel, err := normalizeImagePath(req.Image)
	if err != nil {
		return Generated{}, err
	}

	data, err := os.ReadFile(filepath.Join(g.sourceRoot, filepath.FromSlash(rel)))
	if err != nil {
		return Generated{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, req.Image, err)
	}

	orig, err := Probe(data)
	if err != nil {
		return Generated{}, fmt.Errorf("variant %s: %w", req.Key, err)
	}

	resolved, undersized, err := geometry.Resolve(orig, req.Target)
	if err != nil {
		return Generated{}, fmt.Errorf("variant %s: %w", req.Key, err)
	}
	if undersized {
		g.logger.Printf(
			"notice: %s is smaller than variant %s requests, capping at %dx%d",
			req.Image, req.Key, geometry.Round(resolved.Width), geometry.Round(resolved.Height),
		)
	}

	ext := path.Ext(rel)
	basename := strings.TrimSuffix(path.Base(rel), ext)
	filename := naming.VariantFilename(data, resolved.Width, resolved.Height, basename, ext)

	relDir := path.Dir(rel)
	if relDir == "." {
		relDir = ""
	}
	outDir := filepath.Join(g.destRoot, g.outputDir, filepath.FromSlash(relDir))
	outPath := filepath.Join(outDir, filename)

	out := Generated{
		Key:    req.Key,
		Media:  req.Media,
		Path:   "/" + path.Join(g.outputDir, relDir, filename),
		Width:  geometry.Round(resolved.Width),
		Height: geometry.Round(resolved.Height),
	}

	if _, err := os.Stat(outPath); err == nil {
		out.CacheHit = true
		return out, nil
	}

	// MkdirAll succeeds when the directory already exists, so concurrent
	// renders racing on the same tree are fine.
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Generated{}, fmt.Errorf("create output dir: %w", err)
	}

	filled, err := g.resizer.Fill(ctx, data, out.Width, out.Height, ext)
	if err != nil {
		return Generated{}, fmt.Errorf("variant %s: %w", req.Key, err)
	}

	if err := publishAtomic(outDir, filename, filled); err != nil {
		return Generated{}, fmt.Errorf("write variant %s: %w", req.Key, err)
	}

	g.logger.Printf("generated %s (%dx%d)", out.Path, out.Width, out.Height)
	return out, nil
}

// normalizeImagePath converts an image reference to a clean slash path
// relative to the source root. Paths that climb out of the root are
// rejected before any I/O happens.
func normalizeImagePath(image string) (string, error) {
	rel := path.Clean(strings.TrimPrefix(filepath.ToSlash(image), "/"))
	if rel == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("image path escapes the source root: %q", image)
	}
	return rel, nil
}

// publishAtomic writes data to a temp file in dir and renames it into
// place, so the final name never names a partially-written file. Two
// writers racing on the same name produce identical bytes; last rename
// wins and both outcomes are correct.
func publishAtomic(dir, filename string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish file: %w", err)
	}
	return nil
}
