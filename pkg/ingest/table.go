// Package ingest turns legacy tabular exports (CSV and XLSX) into ordered row
// mappings keyed by header, and provides the header heuristics and
// deduplication helpers the seed pipeline is built on.
package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Row is a single parsed data row. Values are keyed by header and are kept as
// raw strings; type coercion happens in the consumers.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the raw value for col, or "" when the column is absent.
func (r Row) Get(col string) string {
	if col == "" {
		return ""
	}
	return r.Values[col]
}

// Table is an ordered set of rows sharing one header.
type Table struct {
	Header []string
	Rows   []Row
}

type tableBuilder struct {
	header []string
	index  map[string]int
	rows   []Row
	issues issueList
}

func newTableBuilder(header []string) (*tableBuilder, error) {
	h := make([]string, len(header))
	for i := range header {
		h[i] = strings.TrimSpace(header[i])
		if !utf8.ValidString(h[i]) {
			return nil, fmt.Errorf("invalid header encoding")
		}
	}
	if len(h) == 0 || (len(h) == 1 && h[0] == "") {
		return nil, fmt.Errorf("missing header")
	}
	return &tableBuilder{header: h, index: headerIndex(h)}, nil
}

// add appends rec as a data row. Records longer than the header are an issue;
// shorter ones are only tolerated when pad is set (spreadsheet rows drop
// trailing blanks).
func (b *tableBuilder) add(line int, rec []string, pad bool) {
	if isBlankRecord(rec) {
		return
	}
	if len(rec) > len(b.header) || (!pad && len(rec) < len(b.header)) {
		b.issues.add(line, fmt.Sprintf("expected %d fields, got %d", len(b.header), len(rec)))
		return
	}
	values := make(map[string]string, len(b.header))
	for name, i := range b.index {
		if i < len(rec) {
			values[name] = rec[i]
		} else {
			values[name] = ""
		}
	}
	b.rows = append(b.rows, Row{Line: line, Values: values})
}

func (b *tableBuilder) table() (*Table, error) {
	if err := b.issues.err(); err != nil {
		return nil, err
	}
	return &Table{Header: b.header, Rows: b.rows}, nil
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, ok := m[name]; ok {
			continue
		}
		m[name] = i
	}
	return m
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
