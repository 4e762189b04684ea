// Package blob stores image payloads as content-addressed files beside
// the history database.
package blob

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/zeebo/xxh3"
)

// Store writes blobs under a single directory, named by the xxh3-128 of
// their content. Identical bytes always land on the same path, so the
// duplicate-ingest path never writes a second file and never leaves an
// orphan behind.
type Store struct {
	dir string
}

// Open returns a store rooted at <database>/blob.
func Open() (*Store, error) {
	dbDir := viper.GetString("database")
	if dbDir == "" {
		return nil, errors.New("database directory can not be empty")
	}
	return New(filepath.Join(dbDir, "blob")), nil
}

// New returns a store rooted at dir. The directory is created lazily on
// the first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Store writes b to its content-addressed path and returns that path.
// If the file already exists the write is skipped.
func (s *Store) Store(b []byte) (string, error) {
	sum := xxh3.Hash128(b).Bytes()
	id := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	path := filepath.Join(s.dir, id)
	if _, err := os.Stat(path); err == nil {
		return path, nil // blob already exists
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return path, nil
}

// Delete removes the referenced file. A missing file is not an error:
// eviction and clear must tolerate blobs deleted underneath them.
func (s *Store) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Sweep removes the entire blob directory, including any stray files no
// record points at. Used by the startup reset and by wipe.
func (s *Store) Sweep() error {
	return os.RemoveAll(s.dir)
}
