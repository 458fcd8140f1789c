package reports

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnNotFoundError is returned when an upload lacks a column the report needs.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	return fmt.Sprintf("column %q not found in %s", e.Column, e.Table)
}

// Table is a sheet held in memory. Every row has len(Columns) cells;
// an empty cell is absent.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table with normalised headers: names are trimmed, blank
// names become "Unnamed: <i>" and repeats get ".1", ".2" suffixes.
func NewTable(name string, headers []string) *Table {
	t := &Table{
		Name:    name,
		Columns: make([]string, len(headers)),
		index:   make(map[string]int, len(headers)),
	}
	next := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for t.HasColumn(name) {
			next[h]++
			name = h + "." + strconv.Itoa(next[h])
		}
		t.Columns[i] = name
		t.index[name] = i
	}
	return t
}

// Append adds a row, padding or truncating it to the table width.
func (t *Table) Append(cells []string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of name or a *ColumnNotFoundError.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, &ColumnNotFoundError{Table: t.Name, Column: name}
	}
	return i, nil
}

// Cell returns the value at row/column index, or nil when empty or idx < 0.
// Whitespace is a value.
func Cell(row []string, idx int) *string {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	v := row[idx]
	if v == "" {
		return nil
	}
	return &v
}

// Where returns a table with the same columns and the rows matching keep.
func (t *Table) Where(keep func(row []string) bool) *Table {
	out := &Table{Name: t.Name, Columns: t.Columns, index: t.index}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
