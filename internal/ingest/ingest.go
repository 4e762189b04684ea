// Package ingest wires capture payloads into the repository and blob
// store and enforces the retention cap.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Nadim147c/clipd/pkg/clip"
)

// RetentionCap is the maximum number of clips kept. Enforced after
// every insert; also the history query limit.
const RetentionCap = 50

// Repository is the slice of the clip store the pipeline writes
// through.
type Repository interface {
	Upsert(ctx context.Context, fp clip.Hash, factory func() (clip.Clip, error)) (bool, error)
	EvictBeyond(ctx context.Context, cap int) ([]string, error)
	DeleteAll(ctx context.Context) ([]string, error)
}

// BlobStore persists image payloads as files.
type BlobStore interface {
	Store(b []byte) (string, error)
	Delete(ref string) error
	Sweep() error
}

// Notifier is poked after every successful ingestion so the front-end
// can re-fetch history. Delivery is fire-and-forget.
type Notifier interface {
	Changed()
}

// Pipeline is the ingestion path shared by every capture source.
type Pipeline struct {
	repo     Repository
	blobs    BlobStore
	notifier Notifier
}

// New returns a pipeline. notifier may be nil.
func New(repo Repository, blobs BlobStore, notifier Notifier) *Pipeline {
	return &Pipeline{repo: repo, blobs: blobs, notifier: notifier}
}

// Ingest records one captured payload: fingerprint, dedupe-or-insert,
// enforce retention, notify. The blob for an image is only written on
// the insert path; a repeat sighting of a known fingerprint touches no
// files. Blob cleanup failures after eviction are logged, never fatal.
func (p *Pipeline) Ingest(ctx context.Context, kind clip.Kind, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	fp := clip.Fingerprint(data)

	factory := func() (clip.Clip, error) {
		switch kind {
		case clip.KindText:
			return clip.Clip{Kind: clip.KindText, Text: string(data)}, nil
		case clip.KindImage:
			path, err := p.blobs.Store(data)
			if err != nil {
				return clip.Clip{}, fmt.Errorf("failed to store blob: %w", err)
			}
			return clip.Clip{Kind: clip.KindImage, BlobPath: path}, nil
		default:
			return clip.Clip{}, fmt.Errorf("unknown clip kind %q", kind)
		}
	}

	inserted, err := p.repo.Upsert(ctx, fp, factory)
	if err != nil {
		return fmt.Errorf("failed to upsert clip: %w", err)
	}

	if inserted {
		slog.Debug("clip recorded", "kind", kind, "hash", fp)
	} else {
		slog.Debug("clip already known", "kind", kind, "hash", fp)
	}

	refs, err := p.repo.EvictBeyond(ctx, RetentionCap)
	if err != nil {
		slog.Error("failed to enforce retention cap", "error", err)
	}
	for _, ref := range refs {
		if err := p.blobs.Delete(ref); err != nil {
			slog.Error("failed to delete evicted blob", "ref", ref, "error", err)
		}
	}
	if len(refs) > 0 {
		slog.Info("evicted old clips", "count", len(refs))
	}

	p.notify()
	return nil
}

// Reset clears every record and blob. Run once at daemon startup. The
// final sweep also removes stray blob files no record tracked.
func (p *Pipeline) Reset(ctx context.Context) error {
	refs, err := p.repo.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	for _, ref := range refs {
		if err := p.blobs.Delete(ref); err != nil {
			slog.Error("failed to delete blob", "ref", ref, "error", err)
		}
	}

	if err := p.blobs.Sweep(); err != nil {
		slog.Error("failed to sweep blob directory", "error", err)
	}

	slog.Info("clipboard history cleared")
	return nil
}

func (p *Pipeline) notify() {
	if p.notifier != nil {
		p.notifier.Changed()
	}
}
