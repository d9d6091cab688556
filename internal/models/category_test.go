package models

import "testing"

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Livro":              "biblioteca_livro.xlsx",
		"Periódicos":         "biblioteca_periodicos.xlsx",
		"Obras Raras":        "biblioteca_obras_raras.xlsx",
		"Folhetos de Cordel": "biblioteca_folhetos_de_cordel.xlsx",
		"Ação":               "biblioteca_acao.xlsx",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookupCategory(t *testing.T) {
	got, ok := LookupCategory("periodicos")
	if !ok || got != "Periódicos" {
		t.Errorf("LookupCategory(periodicos) = %q, %v", got, ok)
	}
	got, ok = LookupCategory("OBRAS RARAS")
	if !ok || got != "Obras Raras" {
		t.Errorf("LookupCategory(OBRAS RARAS) = %q, %v", got, ok)
	}
	if _, ok := LookupCategory("revistas"); ok {
		t.Error("unknown category resolved")
	}
}

func TestFileNamesAreUnique(t *testing.T) {
	seen := map[string]string{}
	for _, c := range Categories {
		f := FileName(c)
		if prev, dup := seen[f]; dup {
			t.Errorf("%q and %q share file %q", prev, c, f)
		}
		seen[f] = c
	}
}
