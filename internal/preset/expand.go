package preset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/picset/picset/internal/geometry"
)

// Variant is one fully-resolved generation request produced by Expand.
type Variant struct {
	Key    string
	Image  string
	Target geometry.Request
	Media  string
}

// Plan is the ordered expansion of a preset for a single render. The plan is
// an independent value: expanding never mutates the preset it reads.
type Plan struct {
	Variants   []Variant
	DefaultKey string
}

// Expand turns a preset into the ordered list of variant requests for one
// render. Each source resolves its image path from overrides (keyed by
// source key) or falls back to primaryImage. Density multipliers other than
// 1 fan each source out into scaled variants; within a cluster the scaled
// variants come first, in descending multiplier order, immediately ahead of
// their base key, and base keys keep their declared relative order.
//
// Configuration problems (missing dimensions, an override naming an
// undeclared source) fail the expansion before any generation work starts.
func Expand(p *Preset, densities []float64, primaryImage string, overrides map[string]string) (Plan, error) {
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	for key := range overrides {
		if p.source(key) == nil {
			return Plan{}, fmt.Errorf("%w: override %q is not declared by preset %q", ErrUnknownSource, key, p.Name)
		}
	}

	multipliers := scaleMultipliers(densities)

	// Pass one: a cluster of requests per declared source.
	clusters := make([][]Variant, 0, len(p.Sources))
	for _, src := range p.Sources {
		image := primaryImage
		if override, ok := overrides[src.Key]; ok {
			image = override
		}

		cluster := make([]Variant, 0, len(multipliers)+1)
		for _, m := range multipliers {
			cluster = append(cluster, scaledVariant(src, image, m))
		}
		cluster = append(cluster, Variant{
			Key:    src.Key,
			Image:  image,
			Target: targetFor(src.Width, src.Height),
			Media:  src.Media,
		})
		clusters = append(clusters, cluster)
	}

	// Pass two: materialize the final order.
	plan := Plan{DefaultKey: p.DefaultKey()}
	for _, cluster := range clusters {
		plan.Variants = append(plan.Variants, cluster...)
	}
	return plan, nil
}

// scaleMultipliers returns the effective multipliers in descending order.
// A multiplier of 1 is the base variant itself and produces no extra entry.
func scaleMultipliers(densities []float64) []float64 {
	out := make([]float64, 0, len(densities))
	for _, d := range densities {
		if d > 0 && d != 1 {
			out = append(out, d)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

func scaledVariant(src Source, image string, m float64) Variant {
	var width, height *float64
	if src.Width != nil {
		w := math.Round(*src.Width * m)
		width = &w
	}
	if src.Height != nil {
		h := math.Round(*src.Height * m)
		height = &h
	}
	return Variant{
		Key:    fmt.Sprintf("%s-x%s", src.Key, formatMultiplier(m)),
		Image:  image,
		Target: targetFor(width, height),
		Media:  densityMedia(src.Media, m),
	}
}

func targetFor(width, height *float64) geometry.Request {
	var req geometry.Request
	if width != nil {
		req.Width = geometry.Px(*width)
	}
	if height != nil {
		req.Height = geometry.Px(*height)
	}
	return req
}

// densityMedia combines a source's media query with a pixel-density
// condition. The dpi value is rounded when a base query is present and
// truncated when not; both forms are long-standing output and are kept
// exactly as emitted historically.
func densityMedia(base string, m float64) string {
	ratio := formatMultiplier(m)
	if base == "" {
		return fmt.Sprintf(
			"(-webkit-min-device-pixel-ratio: %s), (min-resolution: %ddpi)",
			ratio, int(math.Trunc(m*96)),
		)
	}
	return fmt.Sprintf(
		"%s and (-webkit-min-device-pixel-ratio: %s), %s and (min-resolution: %ddpi)",
		base, ratio, base, int(math.Round(m*96)),
	)
}

func formatMultiplier(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
