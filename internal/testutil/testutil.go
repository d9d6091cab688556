// Package testutil provides shared test helpers for setting up data
// directories, raw category sheets and journals.
package testutil

import (
	"os"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/starford/biblioteca/internal/journal"
	"github.com/starford/biblioteca/internal/storage"
)

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "biblioteca-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary data directory with a storage.Provider.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, store
}

// WriteSheet writes rows verbatim to the first worksheet of a new workbook
// at path, the way a hand-edited or legacy category file would look. The
// schema is not normalized.
func WriteSheet(t *testing.T, path string, rows [][]string) {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.SetSheetRow("Sheet1", cell, &values); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

// ReadSheet returns the cells of the first worksheet at path.
func ReadSheet(t *testing.T, path string) [][]string {
	t.Helper()
	wb, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetList()[0])
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}
