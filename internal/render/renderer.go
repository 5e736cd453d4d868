// Package render orchestrates a full picture render: preset expansion,
// variant generation, and the ordered result handed to markup emitters.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/picset/picset/internal/preset"
	"github.com/picset/picset/internal/variant"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Result is the outcome of one render. Variants preserve the expansion
// order; entries with an empty Path failed recoverably and must be skipped
// by markup emitters. KeepDir names the output subdirectory the host must
// exempt from any cleanup pass over the published root.
type Result struct {
	Preset      string
	Image       string
	Variants    []variant.Generated
	DefaultPath string
	KeepDir     string
}

// CacheHits counts variants that resolved to already-generated files.
func (r Result) CacheHits() int {
	n := 0
	for _, v := range r.Variants {
		if v.CacheHit {
			n++
		}
	}
	return n
}

// Skipped counts variants that failed recoverably.
func (r Result) Skipped() int {
	n := 0
	for _, v := range r.Variants {
		if v.Path == "" {
			n++
		}
	}
	return n
}

type Renderer struct {
	presets   map[string]*preset.Preset
	densities []float64
	generator *variant.Generator
	logger    *log.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

type Options struct {
	Presets   map[string]*preset.Preset
	Densities []float64
	Generator *variant.Generator
	Logger    *log.Logger
	Metrics   *Metrics
}

func New(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	densities := opts.Densities
	if len(densities) == 0 {
		densities = []float64{1}
	}
	return &Renderer{
		presets:   opts.Presets,
		densities: densities,
		generator: opts.Generator,
		logger:    logger,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer("picset/render"),
	}
}

// Render produces the ordered variant list for one image and preset.
//
// Configuration problems (unknown preset, unknown override key, a source
// without dimensions) fail the whole render before any file I/O. A variant
// whose source is missing or whose generation fails is logged as a warning
// and carried in the result with an empty path; the rest of the render
// continues.
func (r *Renderer) Render(ctx context.Context, presetName, image string, overrides map[string]string) (Result, error) {
	start := time.Now()

	p, ok := r.presets[presetName]
	if !ok {
		r.metrics.observeRender(presetName, "failed", time.Since(start).Seconds())
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownPreset, presetName)
	}

	ctx, span := r.tracer.Start(ctx, "render.picture")
	span.SetAttributes(
		attribute.String("picture.preset", presetName),
		attribute.String("picture.image", image),
	)
	defer span.End()

	plan, err := preset.Expand(p, r.densities, image, overrides)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "expansion failed")
		r.metrics.observeRender(presetName, "failed", time.Since(start).Seconds())
		return Result{}, err
	}

	result := Result{
		Preset:   presetName,
		Image:    image,
		Variants: make([]variant.Generated, 0, len(plan.Variants)),
		KeepDir:  r.generator.OutputDir(),
	}

	for _, req := range plan.Variants {
		generated, err := r.generator.Generate(ctx, req)
		if err != nil {
			r.logger.Printf("warning: skipping variant %s of %s: %v", req.Key, image, err)
			r.metrics.observeSkip()
			generated = variant.Generated{Key: req.Key, Media: req.Media}
		} else {
			r.metrics.observeVariant(generated.CacheHit)
		}

		if req.Key == plan.DefaultKey {
			result.DefaultPath = generated.Path
		}
		result.Variants = append(result.Variants, generated)
	}

	span.SetAttributes(
		attribute.Int("picture.variants", len(result.Variants)),
		attribute.Int("picture.cache_hits", result.CacheHits()),
		attribute.Int("picture.skipped", result.Skipped()),
	)
	span.SetStatus(codes.Ok, "rendered")
	r.metrics.observeRender(presetName, "succeeded", time.Since(start).Seconds())
	return result, nil
}
