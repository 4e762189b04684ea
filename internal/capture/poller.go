package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/Nadim147c/clipd/pkg/clip"
)

// PollInterval is the clipboard capture cadence.
const PollInterval = time.Second

// Ingester receives raw payloads detected by a capture source.
type Ingester interface {
	Ingest(ctx context.Context, kind clip.Kind, data []byte) error
}

// Poller checks the clipboard on a fixed cadence and hands changed
// content to the ingester. The text and image channels are compared
// independently against the value observed on the previous tick. That
// per-channel state is only a short-circuit to avoid re-ingesting an
// unchanged selection every second; the repository's unique fingerprint
// index is the dedup authority.
type Poller struct {
	clipboard Clipboard
	ingester  Ingester

	lastText  string
	lastImage clip.Hash
}

// NewPoller returns a poller reading from clipboard and feeding ingester.
func NewPoller(clipboard Clipboard, ingester Ingester) *Poller {
	return &Poller{clipboard: clipboard, ingester: ingester}
}

// Run polls until ctx is cancelled. Ticks never overlap: a tick's
// ingestion finishes before the next tick is taken, and time.Ticker
// drops ticks that fire while one is still running.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	slog.Info("starting clipboard poll", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("clipboard poll stopped")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs a single capture tick.
func (p *Poller) Poll(ctx context.Context) {
	p.pollText(ctx)
	p.pollImage(ctx)
}

func (p *Poller) pollText(ctx context.Context) {
	text, err := p.clipboard.ReadText(ctx)
	if err != nil {
		slog.Error("failed to read clipboard text", "error", err)
		return
	}
	if text == "" || text == p.lastText {
		return
	}

	if err := p.ingester.Ingest(ctx, clip.KindText, []byte(text)); err != nil {
		slog.Error("failed to ingest clipboard text", "error", err)
		return
	}
	p.lastText = text
}

func (p *Poller) pollImage(ctx context.Context) {
	img, err := p.clipboard.ReadImage(ctx)
	if err != nil {
		slog.Error("failed to read clipboard image", "error", err)
		return
	}
	if len(img) == 0 {
		return
	}

	hash := clip.Fingerprint(img)
	if hash == p.lastImage {
		return
	}

	if err := p.ingester.Ingest(ctx, clip.KindImage, img); err != nil {
		slog.Error("failed to ingest clipboard image", "error", err)
		return
	}
	p.lastImage = hash
}
