package variant

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/picset/picset/internal/geometry"
	"github.com/picset/picset/internal/naming"
	"github.com/picset/picset/internal/preset"
)

func TestGenerateWritesCroppedVariant(t *testing.T) {
	tmp := t.TempDir()
	writeTestPNG(t, filepath.Join(tmp, "img", "hero.png"), 240, 120)

	gen := NewGenerator(tmp, filepath.Join(tmp, "site"), "generated", nil, nil)

	got, err := gen.Generate(context.Background(), preset.Variant{
		Key:    "source_default",
		Image:  "img/hero.png",
		Target: geometry.Request{Width: geometry.Px(80), Height: geometry.Px(80)},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got.Width != 80 || got.Height != 80 {
		t.Fatalf("expected 80x80, got %dx%d", got.Width, got.Height)
	}
	if !strings.HasPrefix(got.Path, "/generated/img/hero-80by80-") || !strings.HasSuffix(got.Path, ".png") {
		t.Fatalf("unexpected published path %q", got.Path)
	}
	if got.CacheHit {
		t.Fatal("first generation must not be a cache hit")
	}

	onDisk := filepath.Join(tmp, "site", filepath.FromSlash(strings.TrimPrefix(got.Path, "/")))
	f, err := os.Open(onDisk)
	if err != nil {
		t.Fatalf("open generated file: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode generated file: %v", err)
	}
	if img.Bounds().Dx() != 80 || img.Bounds().Dy() != 80 {
		t.Fatalf("expected generated file to be 80x80, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// No temp files may survive a successful publish.
	entries, err := os.ReadDir(filepath.Dir(onDisk))
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestGenerateSecondCallIsAPureCacheHit(t *testing.T) {
	tmp := t.TempDir()
	writeTestPNG(t, filepath.Join(tmp, "hero.png"), 200, 100)

	spy := &countingResizer{inner: NewResizer()}
	gen := NewGenerator(tmp, tmp, "generated", spy, nil)

	req := preset.Variant{
		Key:    "source_default",
		Image:  "hero.png",
		Target: geometry.Request{Width: geometry.Px(100)},
	}

	first, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}

	if first.Path != second.Path {
		t.Fatalf("paths differ across identical renders: %q vs %q", first.Path, second.Path)
	}
	if !second.CacheHit {
		t.Fatal("expected second call to be a cache hit")
	}
	if spy.calls != 1 {
		t.Fatalf("expected exactly one resize, got %d", spy.calls)
	}
}

func TestGenerateCapsUndersizedRequests(t *testing.T) {
	tmp := t.TempDir()
	data := writeTestPNG(t, filepath.Join(tmp, "hero.png"), 240, 120)

	gen := NewGenerator(tmp, tmp, "generated", nil, nil)

	got, err := gen.Generate(context.Background(), preset.Variant{
		Key:    "source_default",
		Image:  "hero.png",
		Target: geometry.Request{Width: geometry.Px(2000)},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got.Width != 240 || got.Height != 120 {
		t.Fatalf("expected capped 240x120, got %dx%d", got.Width, got.Height)
	}
	want := "/generated/" + naming.VariantFilename(data, 240, 120, "hero", ".png")
	if got.Path != want {
		t.Fatalf("expected path %q, got %q", want, got.Path)
	}
}

func TestGenerateMissingSourceIsRecoverable(t *testing.T) {
	gen := NewGenerator(t.TempDir(), t.TempDir(), "generated", nil, nil)

	_, err := gen.Generate(context.Background(), preset.Variant{
		Key:    "source_default",
		Image:  "absent.png",
		Target: geometry.Request{Width: geometry.Px(100)},
	})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestGenerateRejectsEscapingImagePaths(t *testing.T) {
	gen := NewGenerator(t.TempDir(), t.TempDir(), "generated", nil, nil)

	_, err := gen.Generate(context.Background(), preset.Variant{
		Key:    "source_default",
		Image:  "../outside.png",
		Target: geometry.Request{Width: geometry.Px(100)},
	})
	if err == nil {
		t.Fatal("expected error for path escaping the source root")
	}
}

func TestGenerateCorruptSourceFailsWithoutOutput(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, "broken.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write corrupt source: %v", err)
	}

	gen := NewGenerator(tmp, tmp, "generated", nil, nil)
	_, err := gen.Generate(context.Background(), preset.Variant{
		Key:    "source_default",
		Image:  "broken.png",
		Target: geometry.Request{Width: geometry.Px(50)},
	})
	if err == nil {
		t.Fatal("expected error for corrupt source image")
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "generated")); !os.IsNotExist(statErr) {
		t.Fatal("expected no output directory for a failed variant")
	}
}

type countingResizer struct {
	inner Resizer
	calls int
}

func (c *countingResizer) Fill(ctx context.Context, src []byte, width, height int, ext string) ([]byte, error) {
	c.calls++
	return c.inner.Fill(ctx, src, width, height, ext)
}

func writeTestPNG(t *testing.T, path string, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create source dir: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test png: %v", err)
	}
	return buf.Bytes()
}
