// Package watch re-renders on source image changes. It watches the source
// tree recursively and coalesces rapid successive writes before reporting.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

type Watcher struct {
	root     string
	skipDir  string
	debounce time.Duration
	logger   *log.Logger
	fs       *fsnotify.Watcher
	events   chan string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New watches root for image changes. skipDir names a directory (relative
// to root) to ignore, so a generated-output tree under the source root
// cannot re-trigger its own renders.
func New(root, skipDir string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		skipDir:  skipDir,
		debounce: debounce,
		logger:   logger,
		fs:       fsWatcher,
		events:   make(chan string, 100),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start registers every directory under root and begins delivering events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Events yields source-root-relative slash paths of changed images.
func (w *Watcher) Events() <-chan string {
	return w.events
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldSkipDir(p) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watch directory %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) shouldSkipDir(p string) bool {
	if strings.HasPrefix(filepath.Base(p), ".") && p != w.root {
		return true
	}
	if w.skipDir == "" {
		return false
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == w.skipDir || strings.HasPrefix(rel, w.skipDir+"/")
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories must be registered before files land in them.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.shouldSkipDir(event.Name) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Printf("watch new directory failed: %v", err)
				}
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// Debounce per path: editors fire several writes per save.
	w.mu.Lock()
	if timer, exists := w.timers[rel]; exists {
		timer.Stop()
	}
	w.timers[rel] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, rel)
		w.mu.Unlock()

		select {
		case w.events <- rel:
		default:
			w.logger.Printf("watcher event dropped: %s", rel)
		}
	})
	w.mu.Unlock()
}
