package watch

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()

	w, err := New(root, "generated", 20*time.Millisecond, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	return w
}

func waitForEvent(t *testing.T, w *Watcher) string {
	t.Helper()
	select {
	case rel := <-w.Events():
		return rel
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return ""
	}
}

func TestWatcherReportsImageWrites(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "img"), 0o755); err != nil {
		t.Fatalf("create img dir: %v", err)
	}

	w := newTestWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "img", "hero.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	if rel := waitForEvent(t, w); rel != "img/hero.png" {
		t.Fatalf("expected img/hero.png, got %q", rel)
	}
}

func TestWatcherIgnoresNonImageFiles(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "photo.jpg"), []byte("jpg-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	// Only the image may surface.
	if rel := waitForEvent(t, w); rel != "photo.jpg" {
		t.Fatalf("expected photo.jpg, got %q", rel)
	}
}

func TestWatcherCoalescesRapidWrites(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	path := filepath.Join(root, "banner.png")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte(i)}, 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}

	if rel := waitForEvent(t, w); rel != "banner.png" {
		t.Fatalf("expected banner.png, got %q", rel)
	}

	select {
	case rel := <-w.Events():
		t.Fatalf("expected a single coalesced event, got extra %q", rel)
	case <-time.After(200 * time.Millisecond):
	}
}
