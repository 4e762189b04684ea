// Package ipc serves the popup front-end over a local unix socket:
// history fetch, restore, close, and a change-event stream.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/Nadim147c/clipd/internal/capture"
	"github.com/Nadim147c/clipd/internal/ingest"
	"github.com/Nadim147c/clipd/internal/store"
	"github.com/Nadim147c/clipd/pkg/clip"
)

// The event names pushed on /v1/events.
const (
	EventChange = "change"
	EventHide   = "hide"
)

// History is the read side of the clip store the server needs.
type History interface {
	Recent(ctx context.Context, limit int) ([]clip.Clip, error)
	Get(ctx context.Context, id uint) (clip.Clip, error)
}

// Server exposes the front-end API. It also implements ingest.Notifier
// so the pipeline can push change events through it.
type Server struct {
	history   History
	clipboard capture.Clipboard

	mu   sync.Mutex
	subs map[chan string]struct{}
}

var _ ingest.Notifier = (*Server)(nil)

// NewServer returns a server reading history and restoring clips to
// clipboard.
func NewServer(history History, clipboard capture.Clipboard) *Server {
	return &Server{
		history:   history,
		clipboard: clipboard,
		subs:      make(map[chan string]struct{}),
	}
}

// Changed implements ingest.Notifier.
func (s *Server) Changed() { s.broadcast(EventChange) }

// Serve listens on a unix socket until ctx is cancelled. A stale socket
// file from a previous run is removed first.
func (s *Server) Serve(ctx context.Context, socket string) error {
	if err := os.Remove(socket); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", socket)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", socket, err)
	}

	srv := &http.Server{Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		srv.Close()
		os.Remove(socket)
	}()

	slog.Info("ipc server listening", "socket", socket)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the route mux, split out so tests can drive it with
// httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("POST /v1/restore/{id}", s.handleRestore)
	mux.HandleFunc("POST /v1/close", s.handleClose)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	return mux
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	clips, err := s.history.Recent(r.Context(), ingest.RetentionCap)
	if err != nil {
		slog.Error("failed to query history", "error", err)
		http.Error(w, "failed to query history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(clips); err != nil {
		slog.Error("failed to encode history", "error", err)
	}
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid clip id", http.StatusBadRequest)
		return
	}

	c, err := s.history.Get(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "clip not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to load clip", "id", id, "error", err)
		http.Error(w, "failed to load clip", http.StatusInternalServerError)
		return
	}

	s.restore(r.Context(), c)
	s.broadcast(EventHide)
	w.WriteHeader(http.StatusNoContent)
}

// restore writes the clip back to the clipboard. A missing blob file is
// a silent no-op: the history row may outlive its blob by a moment
// during eviction and the clipboard must never receive a torn image.
func (s *Server) restore(ctx context.Context, c clip.Clip) {
	switch c.Kind {
	case clip.KindText:
		if err := s.clipboard.WriteText(ctx, c.Text); err != nil {
			slog.Error("failed to restore text", "id", c.ID, "error", err)
		}
	case clip.KindImage:
		data, err := os.ReadFile(c.BlobPath)
		if err != nil {
			slog.Warn("blob missing, restore skipped", "id", c.ID, "path", c.BlobPath)
			return
		}
		if err := s.clipboard.WriteImage(ctx, data); err != nil {
			slog.Error("failed to restore image", "id", c.ID, "error", err)
		}
	}
}

func (s *Server) handleClose(w http.ResponseWriter, _ *http.Request) {
	s.broadcast(EventHide)
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams server-sent events until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) subscribe() chan string {
	ch := make(chan string, 8)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan string) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// broadcast pushes an event to every subscriber. Slow subscribers drop
// events; delivery is at-most-once.
func (s *Server) broadcast(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
