// Package fetcher parses batch feasibility inputs from CSV and XLSX files.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one batch row: a project name plus the raw financial record
// keyed by the file's header columns. Cell values stay strings; the engine
// coerces them during normalization.
type Record struct {
	Line int
	Name string
	Raw  map[string]any
}

// nameColumns are header names treated as the project name rather than a
// financial field.
var nameColumns = map[string]bool{
	"name":         true,
	"project":      true,
	"project_name": true,
}

// ReadRecords parses the file at path, choosing the parser by extension
// (.csv or .xlsx).
func ReadRecords(ctx context.Context, path string) ([]Record, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close()
		return ReadCSVRecords(ctx, f)
	case ".xlsx":
		return ReadXLSXRecords(path, XLSXOptions{})
	default:
		return nil, eris.Errorf("fetcher: unsupported extension %q (want .csv or .xlsx)", ext)
	}
}

// buildRecord maps one data row onto the header. Blank cells are omitted so
// the engine applies its defaults for absent fields.
func buildRecord(header, row []string, line int) Record {
	rec := Record{Line: line, Raw: make(map[string]any, len(header))}
	for i, col := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		key := normalizeHeader(col)
		if nameColumns[key] {
			rec.Name = value
			continue
		}
		rec.Raw[key] = value
	}
	return rec
}

// normalizeHeader lowercases a column name and converts spaces and dashes
// to underscores, so "Unit Price" matches the unit_price field key.
func normalizeHeader(col string) string {
	key := strings.ToLower(strings.TrimSpace(col))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
