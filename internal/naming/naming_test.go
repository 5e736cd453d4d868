package naming

import "testing"

func TestVariantFilenameFormat(t *testing.T) {
	name := VariantFilename([]byte("source bytes"), 399.6, 200.4, "hero", ".jpg")

	want := "hero-400by200-" + Digest([]byte("source bytes")) + ".jpg"
	if name != want {
		t.Fatalf("expected %q, got %q", want, name)
	}
	if len(Digest([]byte("source bytes"))) != 6 {
		t.Fatalf("expected 6-character digest")
	}
}

func TestVariantFilenameIsDeterministic(t *testing.T) {
	src := []byte{0x1, 0x2, 0x3, 0x4}

	a := VariantFilename(src, 120, 80, "img", ".png")
	b := VariantFilename(src, 120, 80, "img", ".png")
	if a != b {
		t.Fatalf("identical inputs produced different names: %q vs %q", a, b)
	}
}

func TestVariantFilenameDiffersBySourceContent(t *testing.T) {
	a := VariantFilename([]byte("first"), 120, 80, "img", ".png")
	b := VariantFilename([]byte("second"), 120, 80, "img", ".png")
	if a == b {
		t.Fatalf("different source bytes produced identical name %q", a)
	}
}
