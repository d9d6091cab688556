// Package catalog implements the catalog store: record id allocation and
// the insert, update, move, delete and search operations over the
// per-category spreadsheet stores.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/journal"
	"github.com/starford/biblioteca/internal/models"
	"github.com/starford/biblioteca/internal/storage"
)

// DefaultExportFile is the consolidated spreadsheet name.
const DefaultExportFile = "biblioteca_geral.xlsx"

// Service coordinates the category stores, the consolidated view and the journal.
type Service struct {
	store      storage.Provider
	journal    journal.Journal
	logger     *slog.Logger
	view       *View
	exportFile string

	mu sync.Mutex
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithJournal records pending moves and history in j.
func WithJournal(j journal.Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithExportFile sets the consolidated export file name.
func WithExportFile(name string) Option {
	return func(s *Service) { s.exportFile = name }
}

// NewService creates a catalog service over store.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, exportFile: DefaultExportFile, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.view = NewView(store, s.logger)
	return s
}

// Insert validates rec, assigns its record id and appends it to its
// category store. The stored record is returned; replaced reports that the
// supplied id was overridden by the allocator.
func (s *Service) Insert(ctx context.Context, rec models.Record) (stored models.Record, replaced bool, err error) {
	if err := rec.Validate(); err != nil {
		return models.Record{}, false, err
	}
	rec.Number = models.ParseNumber(rec.Number.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.store.Lock()
	if err != nil {
		return models.Record{}, false, err
	}
	defer unlock()

	sheet, err := s.store.Load(rec.Category)
	if err != nil {
		return models.Record{}, false, err
	}
	id, replaced, err := Allocate(sheet.IDs()).Assign(rec.ID)
	if err != nil {
		return models.Record{}, false, fmt.Errorf("insert into %s: %w", models.FileName(rec.Category), err)
	}
	rec.ID = id

	if err := s.store.Save(rec.Category, append(sheet.Records, rec)); err != nil {
		return models.Record{}, false, err
	}
	s.logger.Info("record inserted",
		slog.String("category", rec.Category),
		slog.String("record_id", rec.ID),
		slog.Bool("id_replaced", replaced))
	s.record(ctx, journal.Event{Kind: journal.KindInsert, Category: rec.Category, RecordID: rec.ID, Detail: rec.Title})
	s.rebuild(ctx)
	return rec, replaced, nil
}

// Get reads one record straight from its category store.
func (s *Service) Get(_ context.Context, category, id string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Load may write a repaired schema back.
	unlock, err := s.store.Lock()
	if err != nil {
		return models.Record{}, err
	}
	defer unlock()

	sheet, idx, err := s.locate(category, id)
	if err != nil {
		return models.Record{}, err
	}
	return sheet.Records[idx], nil
}

// Delete removes the record (category, id) from its store.
func (s *Service) Delete(ctx context.Context, category, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	sheet, idx, err := s.locate(category, id)
	if err != nil {
		return err
	}
	removed := sheet.Records[idx]
	if err := s.store.Save(category, slices.Delete(sheet.Records, idx, idx+1)); err != nil {
		return err
	}
	s.logger.Info("record deleted", slog.String("category", category), slog.String("record_id", id))
	s.record(ctx, journal.Event{Kind: journal.KindDelete, Category: category, RecordID: id, Detail: removed.Title})
	s.rebuild(ctx)
	return nil
}

// Update overwrites every field of (category, id) except the record id with
// edits. When edits.Category names another category the record is moved
// there under the same id.
func (s *Service) Update(ctx context.Context, category, id string, edits models.Record) (models.Record, error) {
	if edits.Category == "" {
		edits.Category = category
	}
	if err := edits.Validate(); err != nil {
		return models.Record{}, err
	}
	edits.Number = models.ParseNumber(edits.Number.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.store.Lock()
	if err != nil {
		return models.Record{}, err
	}
	defer unlock()

	sheet, idx, err := s.locate(category, id)
	if err != nil {
		return models.Record{}, err
	}
	updated := sheet.Records[idx]
	updated.ApplyEdits(edits)

	if updated.Category != category {
		return updated, s.move(ctx, sheet, idx, updated)
	}

	sheet.Records[idx] = updated
	if err := s.store.Save(category, sheet.Records); err != nil {
		return models.Record{}, err
	}
	s.logger.Info("record updated", slog.String("category", category), slog.String("record_id", id))
	s.record(ctx, journal.Event{Kind: journal.KindUpdate, Category: category, RecordID: id, Detail: updated.Title})
	s.rebuild(ctx)
	return updated, nil
}

// move takes the record at idx out of origin and appends it to its new
// category. The two files are not replaced atomically: the origin is
// rewritten first, and a destination that already holds the id aborts the
// move with the record held only by the pending-move marker.
func (s *Service) move(ctx context.Context, origin *storage.Sheet, idx int, rec models.Record) error {
	from, to := origin.Category, rec.Category
	log := s.logger.With(
		slog.String("record_id", rec.ID),
		slog.String("from", from),
		slog.String("to", to))

	var marker string
	if s.journal != nil {
		m, err := s.journal.BeginMove(ctx, origin.Records[idx], rec, from, to)
		if err != nil {
			return fmt.Errorf("move %s: %w", rec.ID, err)
		}
		marker = m
	}

	if err := s.store.Save(from, slices.Delete(origin.Records, idx, idx+1)); err != nil {
		// The origin file was not replaced, so the record is still there.
		s.completeMove(ctx, marker)
		return err
	}
	defer s.rebuild(ctx)

	dest, err := s.store.Load(to)
	if err != nil {
		log.Error("move: destination unreadable", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", apperr.ErrMoveIncomplete, err)
	}
	if dest.Index(rec.ID) >= 0 {
		log.Error("move: record id already taken in destination")
		s.record(ctx, journal.Event{Kind: journal.KindMoveFailed, Category: from, RecordID: rec.ID,
			Detail: fmt.Sprintf("destination %s already holds %s", to, rec.ID)})
		return fmt.Errorf("%w: %w: %s in %s", apperr.ErrMoveIncomplete, apperr.ErrDuplicateRecordID, rec.ID, models.FileName(to))
	}
	if err := s.store.Save(to, append(dest.Records, rec)); err != nil {
		log.Error("move: destination write failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", apperr.ErrMoveIncomplete, err)
	}

	s.completeMove(ctx, marker)
	log.Info("record moved")
	s.record(ctx, journal.Event{Kind: journal.KindMove, Category: to, RecordID: rec.ID, Detail: "from " + from})
	return nil
}

// Rebuild reloads the consolidated view from every store. When the data
// directory lock cannot be taken the previous snapshot is kept.
func (s *Service) Rebuild(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.store.Lock()
	if err != nil {
		s.logger.Warn("view: rebuild skipped", slog.String("error", err.Error()))
		if last := s.view.Last(); last != nil {
			return last
		}
		return unreadable(err)
	}
	defer unlock()
	return s.rebuild(ctx)
}

// Snapshot returns the current consolidated view, building it on first use.
func (s *Service) Snapshot() *Snapshot {
	return s.current(context.Background())
}

// Search filters the consolidated view by id, author or title.
func (s *Service) Search(ctx context.Context, term string) []models.Record {
	return s.current(ctx).Filter(term)
}

func (s *Service) current(ctx context.Context) *Snapshot {
	if snap := s.view.Last(); snap != nil {
		return snap
	}
	return s.Rebuild(ctx)
}

// History returns recent journal events, newest first.
func (s *Service) History(ctx context.Context, limit int, category string) ([]journal.Event, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.History(ctx, limit, category)
}

// locate loads category and finds id in it.
func (s *Service) locate(category, id string) (*storage.Sheet, int, error) {
	if !models.IsCategory(category) {
		return nil, -1, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, category)
	}
	sheet, err := s.store.Load(category)
	if err != nil {
		return nil, -1, err
	}
	if !sheet.Existed {
		return nil, -1, fmt.Errorf("%w: %s does not exist", apperr.ErrRecordNotFound, models.FileName(category))
	}
	idx := sheet.Index(id)
	if idx < 0 {
		return nil, -1, fmt.Errorf("%w: %s in %s", apperr.ErrRecordNotFound, id, models.FileName(category))
	}
	return sheet, idx, nil
}

func (s *Service) rebuild(ctx context.Context) *Snapshot {
	snap := s.view.Rebuild()
	for _, c := range snap.Normalized {
		s.record(ctx, journal.Event{Kind: journal.KindNormalize, Category: c})
	}
	return snap
}

func (s *Service) completeMove(ctx context.Context, marker string) {
	if marker == "" {
		return
	}
	if err := s.journal.CompleteMove(ctx, marker); err != nil {
		s.logger.Warn("move: marker not cleared", slog.String("marker", marker), slog.String("error", err.Error()))
	}
}

// record appends to the history; a journal failure never fails the operation.
func (s *Service) record(ctx context.Context, e journal.Event) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("journal: event not recorded", slog.String("kind", e.Kind), slog.String("error", err.Error()))
	}
}
