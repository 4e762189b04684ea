package capture

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Clipboard abstracts the OS clipboard so the poller and the restore
// path can be driven by synthetic reads in tests.
type Clipboard interface {
	// ReadText returns the current text selection, or "" when the
	// clipboard is empty or holds no text.
	ReadText(ctx context.Context) (string, error)
	// ReadImage returns the current image selection as PNG bytes, or
	// nil when the clipboard holds no image.
	ReadImage(ctx context.Context) ([]byte, error)
	WriteText(ctx context.Context, text string) error
	WriteImage(ctx context.Context, b []byte) error
}

// WaylandClipboard reads and writes the clipboard through wl-paste and
// wl-copy. The protocol offers no change notification, which is why the
// poller exists at all.
type WaylandClipboard struct{}

var _ Clipboard = (*WaylandClipboard)(nil)

// NewWaylandClipboard returns a clipboard backed by wl-clipboard.
func NewWaylandClipboard() *WaylandClipboard {
	return &WaylandClipboard{}
}

func (*WaylandClipboard) ReadText(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "wl-paste", "--no-newline", "--type", "text").Output()
	if err != nil {
		// wl-paste exits non-zero when the selection is empty or has
		// no text offer.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", err
	}
	return string(out), nil
}

func (*WaylandClipboard) ReadImage(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "wl-paste", "--type", "image/png").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (*WaylandClipboard) WriteText(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, "wl-copy")
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func (*WaylandClipboard) WriteImage(ctx context.Context, b []byte) error {
	cmd := exec.CommandContext(ctx, "wl-copy", "--type", "image/png")
	cmd.Stdin = bytes.NewReader(b)
	return cmd.Run()
}
