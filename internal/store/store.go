package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Nadim147c/clipd/pkg/clip"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a clip id does not exist.
var ErrNotFound = errors.New("clip not found")

// Store is the clip repository. All writes go through a single mutex so
// that two concurrent ingestions of identical bytes cannot both observe
// "no existing row" and both insert; the unique index on hash backstops
// anything that still races past (e.g. another process).
type Store struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open opens (creating if needed) history.db inside the configured
// database directory and migrates the clips table. This is the only
// startup-fatal path in clipd.
func Open() (*Store, error) {
	dbDir := viper.GetString("database")
	if dbDir == "" {
		return nil, errors.New("database directory can not be empty")
	}

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(dbDir, "history.db")),
		&gorm.Config{TranslateError: true},
	)
	if err != nil {
		return nil, err
	}

	return New(db)
}

// New wraps an already-open gorm handle. Used by Open and by tests
// running against :memory:.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&clip.Clip{}); err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// SetNow overrides the clock used for LastSeenAt stamps.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

// Upsert records a sighting of content with the given fingerprint. If a
// row with that fingerprint exists its LastSeenAt is bumped; otherwise
// factory is called to build the new row (and only then, so the insert
// path alone pays for blob creation). Returns whether a row was
// inserted. A duplicate-key error from a racing insert is folded into
// the update path, never surfaced.
func (s *Store) Upsert(ctx context.Context, fp clip.Hash, factory func() (clip.Clip, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	var existing clip.Clip
	err := s.db.WithContext(ctx).Where("hash = ?", fp).First(&existing).Error
	if err == nil {
		return false, s.db.WithContext(ctx).Model(&existing).
			Update("last_seen_at", now).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	c, err := factory()
	if err != nil {
		return false, err
	}
	c.ID = 0
	c.Hash = fp
	c.LastSeenAt = now

	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, s.db.WithContext(ctx).Model(&clip.Clip{}).
				Where("hash = ?", fp).
				Update("last_seen_at", now).Error
		}
		return false, err
	}
	return true, nil
}

// Recent returns up to limit clips, most recently seen first. Ties on
// LastSeenAt break by id, newest insert first.
func (s *Store) Recent(ctx context.Context, limit int) ([]clip.Clip, error) {
	var clips []clip.Clip
	err := s.db.WithContext(ctx).
		Order("last_seen_at DESC, id DESC").
		Limit(limit).
		Find(&clips).Error
	return clips, err
}

// Get returns a single clip by id.
func (s *Store) Get(ctx context.Context, id uint) (clip.Clip, error) {
	var c clip.Clip
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return c, err
}

// Count returns the number of stored clips.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&clip.Clip{}).Count(&n).Error
	return int(n), err
}

// Delete removes the given ids, returning the number of deleted rows
// and the blob paths of deleted image clips so the caller can clean the
// files up.
func (s *Store) Delete(ctx context.Context, ids []uint) (int, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clips []clip.Clip
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&clips).Error; err != nil {
		return 0, nil, err
	}

	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&clip.Clip{})
	if res.Error != nil {
		return 0, nil, res.Error
	}

	return int(res.RowsAffected), blobPaths(clips), nil
}

// DeleteAll removes every clip and returns the blob paths that were
// referenced, for cleanup.
func (s *Store) DeleteAll(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clips []clip.Clip
	if err := s.db.WithContext(ctx).Where("blob_path <> ''").Find(&clips).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Where("true").Delete(&clip.Clip{}).Error; err != nil {
		return nil, err
	}

	return blobPaths(clips), nil
}

// EvictBeyond deletes every clip beyond the cap most-recent ones and
// returns their blob paths. No-op when the row count is within cap.
func (s *Store) EvictBeyond(ctx context.Context, cap int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.WithContext(ctx).Model(&clip.Clip{}).Count(&n).Error; err != nil {
		return nil, err
	}
	if int(n) <= cap {
		return nil, nil
	}

	// sqlite's LIMIT -1 OFFSET cap selects everything after the cap
	// most-recent rows.
	var victims []clip.Clip
	err := s.db.WithContext(ctx).
		Raw(`SELECT * FROM clips
    ORDER BY last_seen_at DESC, id DESC
    LIMIT -1 OFFSET ?`, cap).
		Scan(&victims).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(victims))
	for _, c := range victims {
		ids = append(ids, c.ID)
	}

	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&clip.Clip{}).Error; err != nil {
		return nil, err
	}

	return blobPaths(victims), nil
}

func blobPaths(clips []clip.Clip) []string {
	var paths []string
	for _, c := range clips {
		if c.BlobPath != "" {
			paths = append(paths, c.BlobPath)
		}
	}
	return paths
}
