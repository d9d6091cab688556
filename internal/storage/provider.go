// Package storage persists category stores as spreadsheet files.
package storage

import (
	"time"

	"github.com/starford/biblioteca/internal/models"
)

// Sheet is the normalized content of one category store.
type Sheet struct {
	Category string
	Records  []models.Record
	// Existed is false when the category has no file yet.
	Existed bool
	// Normalized is true when the file had to be rewritten to match the schema.
	Normalized bool
}

// IDs returns the record ids in file order, as stored.
func (s *Sheet) IDs() []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.ID
	}
	return out
}

// Index returns the position of the first record with id, or -1.
func (s *Sheet) Index(id string) int {
	for i, r := range s.Records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// StoreInfo describes the file backing one category.
type StoreInfo struct {
	Category  string    `json:"category"`
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Provider is the interface for category store operations.
type Provider interface {
	// Root returns the data directory.
	Root() string
	// Path returns the absolute file path backing category.
	Path(category string) string
	// Stat describes every category file, in category order.
	Stat() ([]StoreInfo, error)
	// Load reads and normalizes the store of category, writing it back when
	// the schema had to be repaired.
	Load(category string) (*Sheet, error)
	// Save replaces the store of category with records.
	Save(category string, records []models.Record) error
	// Export writes records to name (relative to the data directory) and
	// returns the absolute path.
	Export(name string, records []models.Record) (string, error)
	// Lock takes the cross-process write lock and returns its release func.
	Lock() (func(), error)
}
