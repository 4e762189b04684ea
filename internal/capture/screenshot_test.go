package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Nadim147c/clipd/pkg/clip"
)

// waitIngester signals on a channel for every ingested payload.
type waitIngester struct {
	mu     sync.Mutex
	events []ingestedEvent
	got    chan struct{}
}

func newWaitIngester() *waitIngester {
	return &waitIngester{got: make(chan struct{}, 16)}
}

func (f *waitIngester) Ingest(_ context.Context, kind clip.Kind, data []byte) error {
	f.mu.Lock()
	f.events = append(f.events, ingestedEvent{kind: kind, data: string(data)})
	f.mu.Unlock()
	f.got <- struct{}{}
	return nil
}

func (f *waitIngester) recorded() []ingestedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ingestedEvent(nil), f.events...)
}

func (f *waitIngester) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-f.got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ingestion")
	}
}

func TestIsScreenshotName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want bool
	}{
		{"Screenshot 2026-08-31 at 10.15.00.png", true},
		{"Screenshot .png", true},
		{"screenshot 2026.png", false},
		{"Screenshot 2026.jpg", false},
		{"notes.txt", false},
		{"Screenshot", false},
	}
	for _, c := range cases {
		if got := isScreenshotName(c.name); got != c.want {
			t.Errorf("isScreenshotName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestHandleCreateIngestsNewScreenshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ing := newWaitIngester()
	w := NewScreenshotWatcher(dir, ing)
	w.settle = time.Millisecond

	name := "Screenshot 2026-08-31.png"
	data := []byte("png bytes")
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("failed to write screenshot: %v", err)
	}

	w.handleCreate(context.Background(), name)
	ing.waitOne(t)

	events := ing.recorded()
	if len(events) != 1 {
		t.Fatalf("expected 1 ingestion, got %d", len(events))
	}
	if events[0].kind != clip.KindImage || events[0].data != string(data) {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestHandleCreateIgnoresKnownName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ing := newWaitIngester()

	name := "Screenshot old.png"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to write screenshot: %v", err)
	}

	w := NewScreenshotWatcher(dir, ing)
	w.settle = time.Millisecond
	if err := w.seed(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// a re-creation event for a name known since startup is ignored
	w.handleCreate(context.Background(), name)

	select {
	case <-ing.got:
		t.Fatal("seeded screenshot was ingested")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleCreateIngestsOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ing := newWaitIngester()
	w := NewScreenshotWatcher(dir, ing)
	w.settle = time.Millisecond

	name := "Screenshot twice.png"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write screenshot: %v", err)
	}

	ctx := context.Background()
	w.handleCreate(ctx, name)
	w.handleCreate(ctx, name)
	ing.waitOne(t)

	select {
	case <-ing.got:
		t.Fatal("duplicate creation event was ingested twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleCreateIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ing := newWaitIngester()
	w := NewScreenshotWatcher(dir, ing)
	w.settle = time.Millisecond

	w.handleCreate(context.Background(), "notes.txt")

	select {
	case <-ing.got:
		t.Fatal("non-screenshot file was ingested")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunMissingDirectoryDisablesWatcher(t *testing.T) {
	t.Parallel()

	ing := newWaitIngester()
	w := NewScreenshotWatcher(filepath.Join(t.TempDir(), "does-not-exist"), ing)

	// degrades to inactive, not an error
	if err := w.Run(context.Background()); err != nil {
		t.Errorf("expected nil from Run with a missing directory, got %v", err)
	}
}

func TestRunIngestsCreatedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ing := newWaitIngester()
	w := NewScreenshotWatcher(dir, ing)
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// give the watcher a moment to register before creating the file
	time.Sleep(100 * time.Millisecond)

	name := "Screenshot live.png"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("fresh"), 0o644); err != nil {
		t.Fatalf("failed to write screenshot: %v", err)
	}

	ing.waitOne(t)
	cancel()
	<-done

	events := ing.recorded()
	if len(events) != 1 || events[0].data != "fresh" {
		t.Fatalf("unexpected events %+v", events)
	}
}
