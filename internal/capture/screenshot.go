package capture

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nadim147c/clipd/pkg/clip"
	"github.com/fsnotify/fsnotify"
)

// Screenshot filename convention and the wait for the writer to finish
// flushing before the file is read.
const (
	ScreenshotPrefix = "Screenshot "
	ScreenshotSuffix = ".png"
	SettleDelay      = 500 * time.Millisecond
)

// ScreenshotWatcher ingests new screenshot files appearing in one
// directory. Filenames already present at startup, or already handled
// once, are never ingested again, so re-creation events for a known
// name are ignored.
type ScreenshotWatcher struct {
	dir      string
	ingester Ingester
	settle   time.Duration

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewScreenshotWatcher watches dir for files named "Screenshot *.png".
func NewScreenshotWatcher(dir string, ingester Ingester) *ScreenshotWatcher {
	return &ScreenshotWatcher{
		dir:      dir,
		ingester: ingester,
		settle:   SettleDelay,
		seen:     make(map[string]struct{}),
	}
}

// Run watches until ctx is cancelled. A missing directory or a failed
// watch disables screenshot capture without touching any other capture
// path; Run returns nil in that case.
func (w *ScreenshotWatcher) Run(ctx context.Context) error {
	if err := w.seed(); err != nil {
		slog.Warn("screenshot watch disabled", "dir", w.dir, "error", err)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("screenshot watch disabled", "error", err)
		return nil
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		slog.Warn("screenshot watch disabled", "dir", w.dir, "error", err)
		return nil
	}

	slog.Info("watching for screenshots", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			slog.Info("screenshot watch stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				w.handleCreate(ctx, filepath.Base(ev.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("screenshot watch error", "error", err)
		}
	}
}

// seed records every matching filename already in the directory so old
// screenshots are not ingested on startup.
func (w *ScreenshotWatcher) seed() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if isScreenshotName(e.Name()) {
			w.seen[e.Name()] = struct{}{}
		}
	}
	return nil
}

// handleCreate marks name as seen and, after the settle delay, reads
// the file and ingests it. The settle wait runs off the event loop so a
// burst of screenshots cannot stall the watcher.
func (w *ScreenshotWatcher) handleCreate(ctx context.Context, name string) {
	if !isScreenshotName(name) {
		return
	}

	w.mu.Lock()
	if _, ok := w.seen[name]; ok {
		w.mu.Unlock()
		return
	}
	w.seen[name] = struct{}{}
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.settle):
		}
		w.ingest(ctx, name)
	}()
}

func (w *ScreenshotWatcher) ingest(ctx context.Context, name string) {
	path := filepath.Join(w.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read screenshot", "path", path, "error", err)
		return
	}

	if err := w.ingester.Ingest(ctx, clip.KindImage, data); err != nil {
		slog.Error("failed to ingest screenshot", "path", path, "error", err)
		return
	}
	slog.Info("captured screenshot", "name", name)
}

func isScreenshotName(name string) bool {
	return strings.HasPrefix(name, ScreenshotPrefix) &&
		strings.HasSuffix(name, ScreenshotSuffix)
}
