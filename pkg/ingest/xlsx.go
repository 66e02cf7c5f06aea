package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReadXLSX reads the named sheet (or the first one when sheet is empty) of a
// spreadsheet export. The first row is the header.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, &ParseError{Issues: []Issue{{Line: 1, Message: "missing header"}}, Total: 1}
	}
	b, err := newTableBuilder(records[0])
	if err != nil {
		return nil, &ParseError{Issues: []Issue{{Line: 1, Message: err.Error()}}, Total: 1}
	}
	for i, rec := range records[1:] {
		b.add(i+2, rec, true)
	}
	return b.table()
}

// ReadFile reads a CSV or XLSX export, choosing the reader from the file
// content and falling back to the extension.
func ReadFile(path string, opts CSVOptions) (*Table, error) {
	if isSpreadsheet(path) {
		return ReadXLSX(path, "")
	}
	return ReadCSVFile(path, opts)
}

func isSpreadsheet(path string) bool {
	if mt, err := mimetype.DetectFile(path); err == nil && mt.Is(xlsxMIME) {
		return true
	}
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}
