// Package fetcher reads batch input tables (CSV, TSV, XLSX) and downloads
// zipped gazetteer shapefiles.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row followed by data rows. Rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the header named name, compared
// case-insensitively, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// ReadTable reads a table file, choosing the parser by extension.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path, CSVOptions{})
	case ".tsv", ".tab":
		return ReadCSVFile(path, CSVOptions{Delimiter: '\t'})
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	default:
		return nil, eris.Errorf("fetcher: unsupported table format %q", filepath.Ext(path))
	}
}
