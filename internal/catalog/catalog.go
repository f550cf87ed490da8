// Package catalog maintains an index of decoded recordings: one row per
// file, holding the match summary columns used for queries and the full
// header document for everything else. Backends share one schema; the
// factory picks one from configuration.
package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/siegetools/recgame/pkg/rec"
)

// Record is one indexed recording.
type Record struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Path        string `gorm:"uniqueIndex;size:1024" json:"path"`
	GameVersion string `json:"game_version"`
	SaveVersion float64
	NumPlayers  int
	MapWidth    uint32
	MapHeight   uint32
	DurationMs  uint32
	Operations  uint64
	Header      datatypes.JSON
	IndexedAt   time.Time
}

// NewRecord builds a catalog row from a decoded header and body walk totals.
func NewRecord(path string, hdr *rec.Header, durationMs uint32, operations uint64) (*Record, error) {
	headerJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("marshaling header for %s: %w", path, err)
	}
	return &Record{
		Path:        path,
		GameVersion: string(hdr.Version),
		SaveVersion: hdr.SaveVersion,
		NumPlayers:  len(hdr.Players),
		MapWidth:    hdr.Map.Width,
		MapHeight:   hdr.Map.Height,
		DurationMs:  durationMs,
		Operations:  operations,
		Header:      datatypes.JSON(headerJSON),
		IndexedAt:   time.Now().UTC(),
	}, nil
}

// DecodedHeader unmarshals the stored header document.
func (r *Record) DecodedHeader() (*rec.Header, error) {
	var hdr rec.Header
	if err := json.Unmarshal(r.Header, &hdr); err != nil {
		return nil, fmt.Errorf("unmarshaling stored header for %s: %w", r.Path, err)
	}
	return &hdr, nil
}

// Backend is the interface all catalog implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Put inserts or replaces the record for its path.
	Put(r *Record) error
	// Get returns the record for a path, or ErrNotFound.
	Get(path string) (*Record, error)
	// List returns all records ordered by path.
	List() ([]Record, error)
	// Delete removes the record for a path; deleting an unknown path is
	// not an error.
	Delete(path string) error
}

// ErrNotFound reports a path with no catalog row.
var ErrNotFound = fmt.Errorf("recording not in catalog")
