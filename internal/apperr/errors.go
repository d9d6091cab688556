// Package apperr holds the sentinel errors shared across the catalog.
package apperr

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateRecordID = errors.New("record id already exists")
	ErrRecordNotFound    = errors.New("record not found")
	ErrNoStore           = errors.New("category has no store file yet")
	ErrStorage           = errors.New("storage error")
	ErrMoveIncomplete    = errors.New("move incomplete: record removed from origin only")
	ErrNothingToExport   = errors.New("nothing to export")
	ErrLicenseDenied     = errors.New("license not activated")
)
