// Package models defines the domain types for Biblioteca.
package models

import (
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/biblioteca/internal/apperr"
)

// Column headers as they appear in the spreadsheet files.
const (
	ColDate           = "Data"
	ColID             = "Registro"
	ColAuthor         = "Autor"
	ColTitle          = "Título"
	ColPlace          = "Local"
	ColPublisher      = "Editora"
	ColEdition        = "Edição"
	ColVolume         = "Volume"
	ColNumber         = "Número"
	ColYear           = "Ano"
	ColCopy           = "Exemplar"
	ColQuantity       = "Quantidade"
	ColSource         = "Origem"
	ColCutter         = "Cutter"
	ColClassification = "Classificação - CDU"
	ColSubjects       = "Assuntos"
	ColCategory       = "Tipologia"
	ColNote           = "Observação"
)

// DateLayout is the strict DD/MM/YYYY registration date layout.
const DateLayout = "02/01/2006"

// RecordFields are the bibliographic fields, in file order.
var RecordFields = []string{
	ColDate, ColID, ColAuthor, ColTitle, ColPlace, ColPublisher,
	ColEdition, ColVolume, ColNumber, ColYear, ColCopy, ColQuantity, ColSource,
	ColCutter, ColClassification, ColSubjects,
}

// Columns is the authoritative column order of every store file.
var Columns = append(slices.Clone(RecordFields), ColCategory, ColNote)

// Record is one catalogued item.
type Record struct {
	Date           string `json:"date,omitempty"`
	ID             string `json:"id"`
	Author         string `json:"author,omitempty"`
	Title          string `json:"title"`
	Place          string `json:"place,omitempty"`
	Publisher      string `json:"publisher,omitempty"`
	Edition        string `json:"edition,omitempty"`
	Volume         string `json:"volume,omitempty"`
	Number         Number `json:"number"`
	Year           string `json:"year,omitempty"`
	Copy           string `json:"copy,omitempty"`
	Quantity       string `json:"quantity,omitempty"`
	Source         string `json:"source,omitempty"`
	Cutter         string `json:"cutter,omitempty"`
	Classification string `json:"classification,omitempty"`
	Subjects       string `json:"subjects,omitempty"`
	Category       string `json:"category"`
	Note           string `json:"note,omitempty"`
}

// field returns a pointer to the string field stored under column, or nil
// for Número (which is not a plain string) and unknown columns.
func (r *Record) field(column string) *string {
	switch column {
	case ColDate:
		return &r.Date
	case ColID:
		return &r.ID
	case ColAuthor:
		return &r.Author
	case ColTitle:
		return &r.Title
	case ColPlace:
		return &r.Place
	case ColPublisher:
		return &r.Publisher
	case ColEdition:
		return &r.Edition
	case ColVolume:
		return &r.Volume
	case ColYear:
		return &r.Year
	case ColCopy:
		return &r.Copy
	case ColQuantity:
		return &r.Quantity
	case ColSource:
		return &r.Source
	case ColCutter:
		return &r.Cutter
	case ColClassification:
		return &r.Classification
	case ColSubjects:
		return &r.Subjects
	case ColCategory:
		return &r.Category
	case ColNote:
		return &r.Note
	}
	return nil
}

// Get returns the display value of column.
func (r *Record) Get(column string) string {
	if column == ColNumber {
		return r.Number.String()
	}
	if p := r.field(column); p != nil {
		return *p
	}
	return ""
}

// Set assigns the value of column. Número is normalized on the way in.
func (r *Record) Set(column, value string) error {
	if column == ColNumber {
		r.Number = ParseNumber(value)
		return nil
	}
	p := r.field(column)
	if p == nil {
		return fmt.Errorf("unknown column %q", column)
	}
	*p = value
	return nil
}

// Row returns the record values in Columns order.
func (r *Record) Row() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = r.Get(c)
	}
	return out
}

// Map returns the record as column → value.
func (r *Record) Map() map[string]string {
	out := make(map[string]string, len(Columns))
	for _, c := range Columns {
		out[c] = r.Get(c)
	}
	return out
}

// RecordFromMap builds a record from column → value, ignoring unknown columns.
func RecordFromMap(m map[string]string) Record {
	var r Record
	for _, c := range Columns {
		if v, ok := m[c]; ok {
			_ = r.Set(c, v)
		}
	}
	return r
}

// ApplyEdits copies every field of src except the record id into r.
func (r *Record) ApplyEdits(src Record) {
	id := r.ID
	*r = src
	r.ID = id
}

// Validate checks the mandatory title, the date layout and the category.
func (r Record) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("is mandatory")),
		validation.Field(&r.Date, validation.Date(DateLayout).Error("must be a valid date in DD/MM/YYYY format")),
		validation.Field(&r.Category, validation.Required, validation.In(categoryValues()...).Error("is not a known category")),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// ValidDate reports whether s is empty or a calendar-valid DD/MM/YYYY date.
func ValidDate(s string) bool {
	return validation.Validate(s, validation.Date(DateLayout)) == nil
}

// Matches reports whether the lower-cased term is a substring of the
// record id, author or title.
func (r *Record) Matches(term string) bool {
	for _, v := range []string{r.ID, r.Author, r.Title} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
