package catalog

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/starford/biblioteca/internal/models"
	"github.com/starford/biblioteca/internal/storage"
)

// Snapshot is the consolidated, read-only view of every category store.
type Snapshot struct {
	records []models.Record
	// Failures holds the categories that could not be read.
	Failures map[string]error
	// Normalized lists the categories whose files were repaired while loading.
	Normalized []string
	BuiltAt    time.Time
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int { return len(s.records) }

// All returns a copy of every record, in category then file order.
func (s *Snapshot) All() []models.Record {
	return slices.Clone(s.records)
}

// Filter returns the records whose id, author or title contains term,
// ignoring case. A blank term returns everything.
func (s *Snapshot) Filter(term string) []models.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.All()
	}
	out := []models.Record{}
	for i := range s.records {
		if s.records[i].Matches(term) {
			out = append(out, s.records[i])
		}
	}
	return out
}

// Count returns the number of records per category.
func (s *Snapshot) Count() map[string]int {
	out := make(map[string]int, len(models.Categories))
	for _, r := range s.records {
		out[r.Category]++
	}
	return out
}

// View owns the consolidated snapshot and rebuilds it from the stores.
// It is never patched in place: every rebuild reloads all categories.
type View struct {
	store  storage.Provider
	logger *slog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// NewView creates an empty view; nothing is loaded until Rebuild.
func NewView(store storage.Provider, logger *slog.Logger) *View {
	return &View{store: store, logger: logger}
}

// Rebuild reloads every category. A category that fails to load is logged
// and skipped so one bad file never hides the others. Load may write a
// repaired store back, so callers hold the data directory lock.
func (v *View) Rebuild() *Snapshot {
	snap := &Snapshot{Failures: map[string]error{}, BuiltAt: time.Now()}
	for _, c := range models.Categories {
		sheet, err := v.store.Load(c)
		if err != nil {
			v.logger.Warn("view: category skipped",
				slog.String("category", c),
				slog.String("error", err.Error()))
			snap.Failures[c] = err
			continue
		}
		if sheet.Normalized {
			v.logger.Info("view: store normalized", slog.String("category", c))
			snap.Normalized = append(snap.Normalized, c)
		}
		for _, r := range sheet.Records {
			if r.Category != c {
				v.logger.Debug("view: row tagged with owning category",
					slog.String("category", c),
					slog.String("record_id", r.ID),
					slog.String("stored_category", r.Category))
				r.Category = c
			}
			snap.records = append(snap.records, r)
		}
	}

	v.mu.Lock()
	v.snap = snap
	v.mu.Unlock()

	v.logger.Debug("view: rebuilt",
		slog.Int("records", snap.Len()),
		slog.Int("failures", len(snap.Failures)))
	return snap
}

// Last returns the last snapshot, or nil before the first Rebuild.
func (v *View) Last() *Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}

// unreadable is a snapshot in which every category failed with err.
func unreadable(err error) *Snapshot {
	snap := &Snapshot{Failures: make(map[string]error, len(models.Categories)), BuiltAt: time.Now()}
	for _, c := range models.Categories {
		snap.Failures[c] = err
	}
	return snap
}
