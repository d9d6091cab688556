package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSum(t *testing.T) {
	const want = "8d6341258d8d4cb6a91899ca1f704721e59a634b1723f775e382b6e48069d753"
	if got := Sum([]byte("biblioteca")); got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("biblioteca"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := File(p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != Sum([]byte("biblioteca")) {
		t.Errorf("File = %s", got)
	}
	if _, err := File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("ABCD\n", "abcd") {
		t.Error("expected case- and whitespace-insensitive match")
	}
	if Equal("abcd", "abce") {
		t.Error("unexpected match")
	}
}
