package models

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Categories are the known material types, in display order.
var Categories = []string{
	"Livro",
	"Folhetos",
	"Multimeios",
	"Periódicos",
	"Plaquetes",
	"Obras Raras",
	"Folhetos de Cordel",
	"Outros",
}

// FilePrefix and FileExt frame every store file name.
const (
	FilePrefix = "biblioteca_"
	FileExt    = ".xlsx"
)

// IsCategory reports whether name is one of Categories.
func IsCategory(name string) bool {
	return slices.Contains(Categories, name)
}

// LookupCategory resolves user input to a category name, ignoring case
// and diacritics ("periodicos" → "Periódicos").
func LookupCategory(input string) (string, bool) {
	want := Slug(input)
	for _, c := range Categories {
		if Slug(c) == want {
			return c, true
		}
	}
	return "", false
}

// FileName returns the store file name for category.
func FileName(category string) string {
	return FilePrefix + Slug(category) + FileExt
}

// Slug lower-cases s, strips diacritics and turns spaces into underscores.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		stripped = s
	}
	return strings.ReplaceAll(strings.ToLower(stripped), " ", "_")
}

func categoryValues() []any {
	out := make([]any, len(Categories))
	for i, c := range Categories {
		out[i] = c
	}
	return out
}
