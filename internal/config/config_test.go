package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/picset/picset/internal/preset"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "picset.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSiteAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
presets:
  default:
    default:
      width: 640
`)

	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("load site: %v", err)
	}

	if site.SourceRoot != "." {
		t.Fatalf("expected default source_root, got %q", site.SourceRoot)
	}
	if site.OutputSubdir != "generated" {
		t.Fatalf("expected default output_subdir, got %q", site.OutputSubdir)
	}
	if site.Markup != "picturefill" {
		t.Fatalf("expected default markup, got %q", site.Markup)
	}
	if len(site.Densities) != 1 || site.Densities[0] != 1 {
		t.Fatalf("expected default densities [1], got %v", site.Densities)
	}
	if site.Presets["default"].Name != "default" {
		t.Fatalf("expected preset name to be set from key")
	}
}

func TestLoadSitePreservesSourceOrder(t *testing.T) {
	path := writeConfig(t, `
densities: [1, 1.5, 2]
presets:
  hero:
    wide:
      media: "(min-width: 801px)"
      width: 1200
    default:
      width: 640
    small:
      media: "(max-width: 400px)"
      width: 300
`)

	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("load site: %v", err)
	}

	sources := site.Presets["hero"].Sources
	wantOrder := []string{"wide", "default", "small"}
	for i, key := range wantOrder {
		if sources[i].Key != key {
			t.Fatalf("source %d: expected %q, got %q", i, key, sources[i].Key)
		}
	}
}

func TestLoadSiteRejectsInvalidPreset(t *testing.T) {
	path := writeConfig(t, `
presets:
  broken:
    default:
      width: 640
    small:
      media: "(max-width: 400px)"
`)

	_, err := LoadSite(path)
	if !errors.Is(err, preset.ErrMissingDimensions) {
		t.Fatalf("expected ErrMissingDimensions, got %v", err)
	}
}

func TestLoadSiteRejectsUnknownMarkupMode(t *testing.T) {
	path := writeConfig(t, `
markup: carousel
presets:
  default:
    default:
      width: 640
`)

	if _, err := LoadSite(path); err == nil {
		t.Fatal("expected error for unknown markup mode")
	}
}

func TestLoadSiteRejectsNonPositiveDensities(t *testing.T) {
	path := writeConfig(t, `
densities: [1, -2]
presets:
  default:
    default:
      width: 640
`)

	if _, err := LoadSite(path); err == nil {
		t.Fatal("expected error for negative density")
	}
}
