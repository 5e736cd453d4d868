package preset

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestUnmarshalPreservesSourceOrder(t *testing.T) {
	doc := `
feature:
  media: "(min-width: 801px)"
  width: 1200
default:
  width: 640
small:
  media: "(max-width: 400px)"
  width: 300
`
	var p Preset
	if err := yaml.Unmarshal([]byte(doc), &p); err != nil {
		t.Fatalf("unmarshal preset: %v", err)
	}

	wantOrder := []string{"feature", "default", "small"}
	if len(p.Sources) != len(wantOrder) {
		t.Fatalf("expected %d sources, got %d", len(wantOrder), len(p.Sources))
	}
	for i, key := range wantOrder {
		if p.Sources[i].Key != key {
			t.Fatalf("source %d: expected key %q, got %q", i, key, p.Sources[i].Key)
		}
	}
	if p.Sources[0].Width == nil || *p.Sources[0].Width != 1200 {
		t.Fatalf("expected feature width 1200, got %+v", p.Sources[0].Width)
	}
	if p.Sources[2].Media != "(max-width: 400px)" {
		t.Fatalf("expected small media query, got %q", p.Sources[2].Media)
	}
}

func TestValidateRequiresAtLeastOneDimension(t *testing.T) {
	p := &Preset{
		Name: "broken",
		Sources: []Source{
			{Key: "default", Width: f(640)},
			{Key: "small", Media: "(max-width: 400px)"},
		},
	}
	err := p.Validate()
	if !errors.Is(err, ErrMissingDimensions) {
		t.Fatalf("expected ErrMissingDimensions, got %v", err)
	}
}

func TestValidateRequiresExactlyOneDefaultSource(t *testing.T) {
	noDefault := &Preset{
		Name: "no-default",
		Sources: []Source{
			{Key: "small", Width: f(300), Media: "(max-width: 400px)"},
		},
	}
	if err := noDefault.Validate(); !errors.Is(err, ErrNoDefaultSource) {
		t.Fatalf("expected ErrNoDefaultSource, got %v", err)
	}

	twoDefaults := &Preset{
		Name: "two-defaults",
		Sources: []Source{
			{Key: "default", Width: f(640)},
			{Key: "other", Width: f(320)},
		},
	}
	if err := twoDefaults.Validate(); !errors.Is(err, ErrNoDefaultSource) {
		t.Fatalf("expected ErrNoDefaultSource, got %v", err)
	}
}

func TestValidateRejectsNonPositiveDimensions(t *testing.T) {
	p := &Preset{
		Name: "bad-width",
		Sources: []Source{
			{Key: "default", Width: f(0)},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestDefaultKey(t *testing.T) {
	p := &Preset{
		Name: "p",
		Sources: []Source{
			{Key: "wide", Width: f(1200), Media: "(min-width: 801px)"},
			{Key: "default", Width: f(640)},
		},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := p.DefaultKey(); got != "default" {
		t.Fatalf("expected default key %q, got %q", "default", got)
	}
}

func f(v float64) *float64 { return &v }
