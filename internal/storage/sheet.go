package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/models"
)

// readWorkbook returns the header and data rows of the first worksheet.
func readWorkbook(path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

// normalize maps rows onto the authoritative column order. Missing columns
// read as "", unknown columns are dropped and blank rows are skipped.
// changed reports whether the header differs from models.Columns.
func normalize(header []string, rows [][]string) (records []models.Record, changed bool) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	changed = len(header) != len(models.Columns)
	for i, c := range models.Columns {
		if !changed && header[i] != c {
			changed = true
		}
	}

	records = make([]models.Record, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		values := make(map[string]string, len(models.Columns))
		for _, c := range models.Columns {
			if i, ok := pos[c]; ok && i < len(row) {
				values[c] = row[i]
			}
		}
		records = append(records, models.RecordFromMap(values))
	}
	return records, changed
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// writeWorkbook atomically writes records: tmp file → fsync → rename.
// Every cell is written as a string so record ids keep their leading zeros.
func writeWorkbook(path string, records []models.Record) error {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)

	header := make([]any, len(models.Columns))
	for i, c := range models.Columns {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%w: write header: %v", apperr.ErrStorage, err)
	}
	for i := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
		}
		row := records[i].Row()
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%w: write row %d: %v", apperr.ErrStorage, i+2, err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", apperr.ErrStorage, err)
	}
	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", apperr.ErrStorage, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := wb.WriteTo(tmp); err != nil {
		return fmt.Errorf("%w: write temp: %v", apperr.ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: fsync: %v", apperr.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", apperr.ErrStorage, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: replace %s (is it open in another program?): %v", apperr.ErrStorage, filepath.Base(path), err)
	}
	success = true
	return nil
}
