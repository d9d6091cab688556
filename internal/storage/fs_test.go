package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/biblioteca/internal/models"
	"github.com/starford/biblioteca/internal/storage"
	"github.com/starford/biblioteca/internal/testutil"
)

func tempStore(t *testing.T) *storage.FS {
	t.Helper()
	_, s := testutil.TestStore(t)
	return s
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)
	sheet, err := s.Load("Livro")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sheet.Existed || len(sheet.Records) != 0 {
		t.Errorf("sheet = %+v, want empty", sheet)
	}
	if _, err := os.Stat(s.Path("Livro")); !os.IsNotExist(err) {
		t.Error("Load must not create the store file")
	}
}

func TestSaveAndLoadKeepsLeadingZeros(t *testing.T) {
	s := tempStore(t)
	in := []models.Record{
		{ID: "00001", Title: "Vidas Secas", Category: "Livro", Number: models.ParseNumber("2,0")},
		{ID: "00002", Title: "Sagarana", Author: "Guimarães Rosa", Category: "Livro"},
	}
	if err := s.Save("Livro", in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sheet, err := s.Load("Livro")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !sheet.Existed || sheet.Normalized {
		t.Errorf("existed=%v normalized=%v", sheet.Existed, sheet.Normalized)
	}
	if diff := cmp.Diff([]string{"00001", "00002"}, sheet.IDs()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if sheet.Records[0].Number.String() != "2" {
		t.Errorf("number = %q", sheet.Records[0].Number.String())
	}
	if sheet.Records[1].Author != "Guimarães Rosa" {
		t.Errorf("author = %q", sheet.Records[1].Author)
	}
}

func TestLoadNormalizesLegacyHeader(t *testing.T) {
	s := tempStore(t)
	p := s.Path("Folhetos")
	// Legacy layout: no Número column, shuffled order and an extra column.
	testutil.WriteSheet(t, p, [][]string{
		{"Título", "Registro", "Tipologia", "Coluna Antiga"},
		{"Cordel do Sertão", "00007", "Folhetos", "lixo"},
	})

	sheet, err := s.Load("Folhetos")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !sheet.Normalized {
		t.Error("expected the file to be rewritten")
	}
	if len(sheet.Records) != 1 || sheet.Records[0].ID != "00007" || sheet.Records[0].Title != "Cordel do Sertão" {
		t.Fatalf("records = %+v", sheet.Records)
	}

	rows := testutil.ReadSheet(t, p)
	if diff := cmp.Diff(models.Columns, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	for _, cell := range rows[1] {
		if cell == "lixo" {
			t.Error("legacy column survived normalization")
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	s := tempStore(t)
	p := s.Path("Plaquetes")
	testutil.WriteSheet(t, p, [][]string{
		{"Registro", "Título"},
		{"00001", "A"},
		{"", ""},
		{"00002", "B"},
	})

	first, err := s.Load("Plaquetes")
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	before, _ := os.ReadFile(p)

	second, err := s.Load("Plaquetes")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	after, _ := os.ReadFile(p)

	if second.Normalized {
		t.Error("second load should not rewrite the file")
	}
	if !bytes.Equal(before, after) {
		t.Error("file bytes changed on a no-op reload")
	}
	if diff := cmp.Diff(first.Records, second.Records, cmp.AllowUnexported(models.Number{})); diff != "" {
		t.Errorf("records differ (-first +second):\n%s", diff)
	}
	if len(second.Records) != 2 {
		t.Errorf("blank row not skipped: %d records", len(second.Records))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path("Outros"), []byte("not a spreadsheet"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("Outros"); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempStore(t)
	if err := s.Save("Livro", []models.Record{{ID: "00001", Title: "A", Category: "Livro"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("Livro", []models.Record{{ID: "00001", Title: "B", Category: "Livro"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), storage.TempPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
	sheet, _ := s.Load("Livro")
	if sheet.Records[0].Title != "B" {
		t.Errorf("title = %q, want B", sheet.Records[0].Title)
	}
}

func TestExportTraversalBlocked(t *testing.T) {
	s := tempStore(t)
	for _, name := range []string{"../fora.xlsx", "/etc/geral.xlsx", ""} {
		if _, err := s.Export(name, nil); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
	p, err := s.Export("biblioteca_geral.xlsx", []models.Record{{ID: "00001", Title: "A", Category: "Livro"}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if rows := testutil.ReadSheet(t, p); len(rows) != 2 {
		t.Errorf("export rows = %d, want 2", len(rows))
	}
}

func TestStat(t *testing.T) {
	s := tempStore(t)
	_ = s.Save("Multimeios", []models.Record{{ID: "00001", Title: "DVD", Category: "Multimeios"}})

	infos, err := s.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if len(infos) != len(models.Categories) {
		t.Fatalf("len = %d", len(infos))
	}
	for _, info := range infos {
		want := info.Category == "Multimeios"
		if info.Exists != want {
			t.Errorf("%s exists = %v", info.Category, info.Exists)
		}
		if want && info.Checksum == "" {
			t.Error("missing checksum")
		}
	}
}

func TestLock(t *testing.T) {
	s := tempStore(t)
	unlock, err := s.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()
	unlock, err = s.Lock()
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	unlock()
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := storage.NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "biblioteca-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := storage.NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
