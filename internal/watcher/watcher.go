// Package watcher reports edits made to the category spreadsheets by other
// programs so the consolidated view can be rebuilt.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/biblioteca/internal/checksum"
	"github.com/starford/biblioteca/internal/models"
	"github.com/starford/biblioteca/internal/storage"
)

// DefaultDebounce is used when a zero debounce is given.
const DefaultDebounce = 300 * time.Millisecond

// ChangeCallback is called once per debounce window with the categories
// whose files changed content, were created or were removed.
type ChangeCallback func(ctx context.Context, categories []string)

// Watch starts an fsnotify watcher on dataDir and processes file change
// events until ctx is cancelled.
//
// Spreadsheet editors save through temporary and lock files, so bursts of
// events are coalesced for debounce and a file whose checksum did not
// change is not reported.
func Watch(ctx context.Context, dataDir string, debounce time.Duration, logger *slog.Logger, cb ChangeCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dataDir); err != nil {
		return err
	}

	seen := make(map[string]string, len(models.Categories))
	for _, c := range models.Categories {
		p := filepath.Join(dataDir, models.FileName(c))
		if sum, err := checksum.File(p); err == nil {
			seen[c] = sum
		}
	}

	logger.Info("watcher: started", slog.String("root", dataDir))

	pending := map[string]struct{}{}
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			changed := flush(dataDir, pending, seen, logger)
			clear(pending)
			if len(changed) > 0 && cb != nil {
				cb(ctx, changed)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			c, ok := categoryOf(ev.Name)
			if !ok {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: event", slog.String("category", c), slog.String("op", ev.Op.String()))
			pending[c] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// flush compares the pending categories against the last seen checksums
// and returns those that really changed, in category order.
func flush(dataDir string, pending map[string]struct{}, seen map[string]string, logger *slog.Logger) []string {
	var changed []string
	for _, c := range models.Categories {
		if _, ok := pending[c]; !ok {
			continue
		}
		sum, err := checksum.File(filepath.Join(dataDir, models.FileName(c)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if _, had := seen[c]; had {
				delete(seen, c)
				changed = append(changed, c)
			}
		case err != nil:
			logger.Warn("watcher: checksum failed", slog.String("category", c), slog.String("error", err.Error()))
		case seen[c] != sum:
			seen[c] = sum
			changed = append(changed, c)
		}
	}
	if len(changed) > 0 {
		logger.Debug("watcher: categories changed", slog.Any("categories", changed))
	}
	return changed
}

// categoryOf maps a store file path to its category. Temporary files from
// atomic saves and office lock files ("~$...") are ignored.
func categoryOf(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, storage.TempPrefix) || strings.HasPrefix(base, "~$") {
		return "", false
	}
	if !strings.HasPrefix(base, models.FilePrefix) || !strings.EqualFold(filepath.Ext(base), models.FileExt) {
		return "", false
	}
	i := slices.IndexFunc(models.Categories, func(c string) bool {
		return models.FileName(c) == base
	})
	if i < 0 {
		return "", false
	}
	return models.Categories[i], true
}
