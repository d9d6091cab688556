package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/checksum"
	"github.com/starford/biblioteca/internal/models"
)

const (
	lockFileName = ".biblioteca.lock"
	tmpPattern   = ".biblioteca-tmp-*.xlsx"
)

// TempPrefix marks files written by Save before they are renamed in place.
const TempPrefix = ".biblioteca-tmp-"

// FS implements Provider backed by xlsx files in one directory.
type FS struct {
	root string // absolute path to the data directory
	lock *flock.Flock
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, lock: flock.New(filepath.Join(abs, lockFileName))}, nil
}

// Root returns the data directory.
func (f *FS) Root() string { return f.root }

// Path returns the file backing category.
func (f *FS) Path(category string) string {
	return filepath.Join(f.root, models.FileName(category))
}

// safePath resolves a relative path against the data root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if rel == "" || cleaned == "." {
		return "", fmt.Errorf("storage: empty file name")
	}
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes data root: %s", rel)
	}
	return abs, nil
}

// Stat describes every category file.
func (f *FS) Stat() ([]StoreInfo, error) {
	out := make([]StoreInfo, 0, len(models.Categories))
	for _, c := range models.Categories {
		p := f.Path(c)
		info := StoreInfo{Category: c, Path: p}
		st, err := os.Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("%w: stat %s: %v", apperr.ErrStorage, p, err)
		default:
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("%w: read %s: %v", apperr.ErrStorage, p, err)
			}
			info.Exists = true
			info.Checksum = checksum.Sum(data)
			info.UpdatedAt = st.ModTime()
		}
		out = append(out, info)
	}
	return out, nil
}

// Load reads the store of category. A missing file yields an empty sheet.
func (f *FS) Load(category string) (*Sheet, error) {
	p := f.Path(category)
	sheet := &Sheet{Category: category}

	header, rows, err := readWorkbook(p)
	if errors.Is(err, fs.ErrNotExist) {
		return sheet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", apperr.ErrStorage, filepath.Base(p), err)
	}
	sheet.Existed = true

	records, changed := normalize(header, rows)
	sheet.Records = records
	if changed {
		if err := writeWorkbook(p, records); err != nil {
			return nil, err
		}
		sheet.Normalized = true
	}
	return sheet, nil
}

// Save replaces the store of category with records.
func (f *FS) Save(category string, records []models.Record) error {
	return writeWorkbook(f.Path(category), records)
}

// Export writes records to name under the data root.
func (f *FS) Export(name string, records []models.Record) (string, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return "", err
	}
	if err := writeWorkbook(abs, records); err != nil {
		return "", err
	}
	return abs, nil
}

// Lock blocks until the data directory lock is held.
func (f *FS) Lock() (func(), error) {
	if err := f.lock.Lock(); err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", apperr.ErrStorage, f.lock.Path(), err)
	}
	return func() { _ = f.lock.Unlock() }, nil
}
