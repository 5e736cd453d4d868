package preset

import (
	"errors"
	"testing"
)

func twoSourcePreset() *Preset {
	return &Preset{
		Name: "default",
		Sources: []Source{
			{Key: "source_default", Width: f(400)},
			{Key: "source_small", Width: f(200), Media: "(max-width: 400px)"},
		},
	}
}

func TestExpandClustersDensityVariantsBeforeBaseKeys(t *testing.T) {
	plan, err := Expand(twoSourcePreset(), []float64{1, 2}, "img/hero.jpg", nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	wantKeys := []string{"source_default-x2", "source_default", "source_small-x2", "source_small"}
	if len(plan.Variants) != len(wantKeys) {
		t.Fatalf("expected %d variants, got %d", len(wantKeys), len(plan.Variants))
	}
	for i, key := range wantKeys {
		if plan.Variants[i].Key != key {
			t.Fatalf("variant %d: expected key %q, got %q", i, key, plan.Variants[i].Key)
		}
	}
	if plan.DefaultKey != "source_default" {
		t.Fatalf("expected default key source_default, got %q", plan.DefaultKey)
	}
}

func TestExpandOrdersMultipliersDescendingWithinCluster(t *testing.T) {
	plan, err := Expand(twoSourcePreset(), []float64{1.5, 1, 2}, "hero.jpg", nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	wantKeys := []string{
		"source_default-x2", "source_default-x1.5", "source_default",
		"source_small-x2", "source_small-x1.5", "source_small",
	}
	for i, key := range wantKeys {
		if plan.Variants[i].Key != key {
			t.Fatalf("variant %d: expected key %q, got %q", i, key, plan.Variants[i].Key)
		}
	}
}

func TestExpandScalesDimensionsRoundedToNearest(t *testing.T) {
	p := &Preset{
		Name: "p",
		Sources: []Source{
			{Key: "default", Width: f(333), Height: f(111)},
		},
	}
	plan, err := Expand(p, []float64{1.5}, "hero.jpg", nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	scaled := plan.Variants[0]
	if scaled.Key != "default-x1.5" {
		t.Fatalf("expected key default-x1.5, got %q", scaled.Key)
	}
	if got := scaled.Target.Width.Pixels(); got != 500 {
		t.Fatalf("expected scaled width 500 (round of 499.5), got %v", got)
	}
	if got := scaled.Target.Height.Pixels(); got != 167 {
		t.Fatalf("expected scaled height 167 (round of 166.5), got %v", got)
	}
}

func TestExpandDensityMediaQueries(t *testing.T) {
	// 1.3 * 96 = 124.8: the unqualified branch truncates the dpi value, the
	// media-qualified branch rounds it.
	plan, err := Expand(twoSourcePreset(), []float64{1, 1.3}, "hero.jpg", nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	unqualified := plan.Variants[0]
	wantUnqualified := "(-webkit-min-device-pixel-ratio: 1.3), (min-resolution: 124dpi)"
	if unqualified.Media != wantUnqualified {
		t.Fatalf("expected media %q, got %q", wantUnqualified, unqualified.Media)
	}

	qualified := plan.Variants[2]
	wantQualified := "(max-width: 400px) and (-webkit-min-device-pixel-ratio: 1.3), " +
		"(max-width: 400px) and (min-resolution: 125dpi)"
	if qualified.Media != wantQualified {
		t.Fatalf("expected media %q, got %q", wantQualified, qualified.Media)
	}

	base := plan.Variants[1]
	if base.Media != "" {
		t.Fatalf("expected base default source to have no media, got %q", base.Media)
	}
}

func TestExpandAppliesSourceOverrides(t *testing.T) {
	plan, err := Expand(twoSourcePreset(), []float64{1, 2}, "hero.jpg", map[string]string{
		"source_small": "hero-cropped.jpg",
	})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	for _, v := range plan.Variants {
		switch v.Key {
		case "source_small", "source_small-x2":
			if v.Image != "hero-cropped.jpg" {
				t.Fatalf("variant %s: expected override image, got %q", v.Key, v.Image)
			}
		default:
			if v.Image != "hero.jpg" {
				t.Fatalf("variant %s: expected primary image, got %q", v.Key, v.Image)
			}
		}
	}
}

func TestExpandRejectsUnknownOverrideKey(t *testing.T) {
	_, err := Expand(twoSourcePreset(), []float64{1}, "hero.jpg", map[string]string{
		"source_huge": "other.jpg",
	})
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestExpandRejectsMissingDimensionsBeforeAnyWork(t *testing.T) {
	p := &Preset{
		Name: "broken",
		Sources: []Source{
			{Key: "default", Width: f(640)},
			{Key: "small", Media: "(max-width: 400px)"},
		},
	}
	_, err := Expand(p, []float64{1, 2}, "hero.jpg", nil)
	if !errors.Is(err, ErrMissingDimensions) {
		t.Fatalf("expected ErrMissingDimensions, got %v", err)
	}
}

func TestExpandDoesNotMutateThePreset(t *testing.T) {
	p := twoSourcePreset()
	before := *p.Sources[0].Width

	if _, err := Expand(p, []float64{1, 2}, "hero.jpg", nil); err != nil {
		t.Fatalf("expand: %v", err)
	}

	if *p.Sources[0].Width != before {
		t.Fatalf("expand mutated the preset width: %v", *p.Sources[0].Width)
	}
	if len(p.Sources) != 2 {
		t.Fatalf("expand mutated the preset source list: %d sources", len(p.Sources))
	}
}
