// Package schema models already-parsed tabular input and resolves which
// physical column carries each semantic field the engine needs.
//
// Input files are produced by different teams with inconsistent headers, so
// resolution is best-effort: exact case-insensitive synonym match first,
// then substring containment, then an explicit positional fallback reserved
// for ledgers that carry no header guarantees. "Not found" is reported
// distinctly from "found but empty" so callers can decide between aborting
// (critical fields) and defaulting (enrichment fields).
package schema

import (
	"strings"
)

// Table is an ordered list of column names plus rows of string cells, as
// handed over by the tabular loader.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table from raw headers and rows. Headers are cleaned of
// stray quotes and surrounding whitespace before use; ragged rows are
// padded to the header width.
func NewTable(columns []string, rows [][]string) *Table {
	cleaned := make([]string, len(columns))
	for i, c := range columns {
		cleaned[i] = CleanHeader(c)
	}

	padded := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) < len(cleaned) {
			p := make([]string, len(cleaned))
			copy(p, row)
			row = p
		}
		padded[i] = row
	}

	t := &Table{Columns: cleaned, Rows: padded}
	t.buildIndex()
	return t
}

// CleanHeader strips quote characters and surrounding whitespace from a
// column header.
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.ReplaceAll(h, `"`, "")
	h = strings.ReplaceAll(h, `'`, "")
	return strings.TrimSpace(h)
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		key := strings.ToLower(c)
		// First column wins on duplicate headers.
		if _, exists := t.index[key]; !exists {
			t.index[key] = i
		}
	}
}

// ColumnIndex returns the index of the named column, case-insensitively.
func (t *Table) ColumnIndex(name string) (int, bool) {
	idx, ok := t.index[strings.ToLower(CleanHeader(name))]
	return idx, ok
}

// Cell returns the trimmed cell at the given row and column index. Out of
// range access yields the empty string.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no data rows.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// Append concatenates another table onto this one, aligning cells by column
// name. Columns present only in the other table are added; missing cells
// stay empty. Used to concatenate multiple order exports into one table.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}

	// Extend the column set with the other table's extra columns.
	for _, c := range other.Columns {
		if _, ok := t.ColumnIndex(c); !ok {
			t.Columns = append(t.Columns, c)
			t.buildIndex()
		}
	}

	mapping := make([]int, len(other.Columns))
	for i, c := range other.Columns {
		idx, _ := t.ColumnIndex(c)
		mapping[i] = idx
	}

	for _, row := range other.Rows {
		merged := make([]string, len(t.Columns))
		for i := range row {
			if i < len(mapping) {
				merged[mapping[i]] = row[i]
			}
		}
		t.Rows = append(t.Rows, merged)
	}
}
