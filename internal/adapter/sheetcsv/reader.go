// Package sheetcsv reads exported workbook sheets from CSV files. One CSV
// file is one sheet; the file stem is the sheet label. Cells are typed
// minimally here (blank or number or text) and coerced further by the
// sheet parser.
package sheetcsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
)

// Reader implements the pipeline's book boundary for CSV exports.
type Reader struct{}

func New() *Reader { return &Reader{} }

// ReadBook parses one CSV file into a single labelled sheet.
func (r *Reader) ReadBook(path string) ([]domain.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	// Spreadsheet exports carry ragged banner rows above the header.
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	grid := make([][]domain.Cell, 0, len(records))
	for _, rec := range records {
		row := make([]domain.Cell, 0, len(rec))
		for _, field := range rec {
			row = append(row, typeCell(field))
		}
		grid = append(grid, row)
	}

	return []domain.Sheet{{Label: sheetLabel(path), Grid: grid}}, nil
}

// typeCell assigns the coarse cell kind. Dates stay text; the sheet parser
// owns calendar formats.
func typeCell(field string) domain.Cell {
	s := strings.TrimSpace(field)
	if s == "" {
		return domain.BlankCell()
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.NumberCell(v)
	}
	return domain.TextCell(s)
}

func sheetLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
