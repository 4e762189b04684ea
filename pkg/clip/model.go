package clip

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Kind tells whether a clip holds text or an image blob.
type Kind string

// The two clip kinds clipd persists.
const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Hash is a uint64 wrapper stored as hex TEXT in sqlite.
type Hash uint64

var (
	_ fmt.Stringer  = (*Hash)(nil)
	_ sql.Scanner   = (*Hash)(nil)
	_ driver.Valuer = (*Hash)(nil)
)

// String convert hash to String
func (h Hash) String() string {
	return strconv.FormatUint(uint64(h), 16)
}

// Value import driver.Valuer
func (h Hash) Value() (driver.Value, error) {
	return h.String(), nil
}

// Scan implements sql.Scaner
func (h *Hash) Scan(value any) error {
	if value == nil {
		*h = 0
		return nil
	}

	switch v := value.(type) {
	case string: // TEXT column
		u, err := strconv.ParseUint(v, 16, 64)
		if err != nil {
			return fmt.Errorf("failed to scan Hash(string): %w", err)
		}
		*h = Hash(u)
		return nil

	case []byte: // SQLite may return TEXT as BLOB
		u, err := strconv.ParseUint(string(v), 16, 64)
		if err != nil {
			return fmt.Errorf("failed to scan Hash([]byte): %w", err)
		}
		*h = Hash(u)
		return nil

	default: // should never happen if column is TEXT, but safe guard anyway
		return fmt.Errorf("unsupported type scanned for Hash: %T", value)
	}
}

// Fingerprint returns the content hash used as the dedup key. Identical
// byte sequences always produce the same fingerprint, whatever their
// source (typed text, re-copied text, a re-captured screenshot).
func Fingerprint(b []byte) Hash {
	return Hash(xxhash.Sum64(b))
}

// Clip is a single clipboard history item. Exactly one of Text and
// BlobPath is populated, matching Kind. Hash is unique across all rows:
// re-seeing known content bumps LastSeenAt instead of inserting.
type Clip struct {
	ID         uint      `json:"id"`
	Kind       Kind      `json:"kind"`
	Text       string    `json:"text,omitempty"`
	BlobPath   string    `json:"blob_path,omitempty"`
	Hash       Hash      `json:"hash"                gorm:"index:,unique,length:16"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
