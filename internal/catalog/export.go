package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/journal"
	"github.com/starford/biblioteca/internal/models"
	"github.com/starford/biblioteca/internal/storage"
)

// Export writes every record of the consolidated view to the export file
// and returns its path.
func (s *Service) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.rebuild(ctx)
	if snap.Len() == 0 {
		return "", apperr.ErrNothingToExport
	}
	path, err := s.store.Export(s.exportFile, snap.All())
	if err != nil {
		return "", err
	}
	s.logger.Info("catalog exported", slog.String("path", path), slog.Int("records", snap.Len()))
	s.record(ctx, journal.Event{Kind: journal.KindExport, Detail: fmt.Sprintf("%d records", snap.Len())})
	return path, nil
}

// ExportPath returns the path of the consolidated export file, failing with
// apperr.ErrNoStore until an export has been made.
func (s *Service) ExportPath() (string, error) {
	return existing(filepath.Join(s.store.Root(), s.exportFile))
}

// StorePath normalizes the file backing category and returns its path,
// failing with apperr.ErrNoStore when nothing was saved there yet.
func (s *Service) StorePath(category string) (string, error) {
	c, ok := models.LookupCategory(category)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.store.Lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	sheet, err := s.store.Load(c)
	if err != nil {
		return "", err
	}
	if !sheet.Existed {
		return "", fmt.Errorf("%w: %s", apperr.ErrNoStore, models.FileName(c))
	}
	return s.store.Path(c), nil
}

// CategoryInfo is one line of the category summary.
type CategoryInfo struct {
	storage.StoreInfo
	Records int  `json:"records"`
	Failed  bool `json:"failed,omitempty"`
}

// Categories summarizes every category store in declaration order.
func (s *Service) Categories(_ context.Context) ([]CategoryInfo, error) {
	infos, err := s.store.Stat()
	if err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	counts := snap.Count()
	out := make([]CategoryInfo, len(infos))
	for i, info := range infos {
		_, failed := snap.Failures[info.Category]
		out[i] = CategoryInfo{StoreInfo: info, Records: counts[info.Category], Failed: failed}
	}
	return out, nil
}

func existing(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", apperr.ErrNoStore, filepath.Base(path))
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return path, nil
}
