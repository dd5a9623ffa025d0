package core

import (
	"encoding/json"
	"fmt"
)

// Table is the finished result of one ingestion. It is built once by
// ReadRecord or ReadTable and never modified afterwards; accessors hand out
// copies of the top-level slices.
type Table struct {
	header      []string
	rows        []Row
	columnTypes []ElemType
}

// newTable assembles a table and reconciles its column types.
func newTable(header []string, rows []Row, columns int) *Table {
	if header == nil {
		header = []string{}
	}
	if rows == nil {
		rows = []Row{}
	}
	return &Table{
		header:      header,
		rows:        rows,
		columnTypes: ReconcileColumnTypes(rows, columns),
	}
}

// Header returns the column names, or an empty slice when the file was read
// without a header.
func (t *Table) Header() []string {
	return append([]string{}, t.header...)
}

// HasHeader reports whether a non-empty header line was read.
func (t *Table) HasHeader() bool {
	return len(t.header) > 0
}

// Rows returns the data grid in file order. The Row values are shared with
// the table and must not be modified.
func (t *Table) Rows() []Row {
	return append([]Row{}, t.rows...)
}

// ColumnTypes returns one elementary type per column.
func (t *Table) ColumnTypes() []ElemType {
	return append([]ElemType{}, t.columnTypes...)
}

// NumRows returns the number of data rows (the header is not counted).
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumColumns returns the table's column count.
func (t *Table) NumColumns() int {
	return len(t.columnTypes)
}

// Cell returns the field at row i, column j.
func (t *Table) Cell(i, j int) (Field, error) {
	if i < 0 || i >= len(t.rows) {
		return Field{}, fmt.Errorf("cell (%d, %d): %w", i, j, ErrRowRange)
	}
	if j < 0 || j >= len(t.rows[i]) {
		return Field{}, fmt.Errorf("cell (%d, %d): %w", i, j, ErrColumnRange)
	}
	return t.rows[i][j], nil
}

// ColumnName returns the header name of column j, or "colN" (1-based) when
// the table has no header.
func (t *Table) ColumnName(j int) string {
	if j >= 0 && j < len(t.header) && t.header[j] != "" {
		return t.header[j]
	}
	return fmt.Sprintf("col%d", j+1)
}

// Column is a single column view: its name, reconciled type and raw values.
type Column struct {
	Name   string
	Type   ElemType
	Values []string
}

// Column returns column j as a Column.
func (t *Table) Column(j int) (Column, error) {
	if j < 0 || j >= len(t.columnTypes) {
		return Column{}, fmt.Errorf("column %d: %w", j, ErrColumnRange)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[j].Value
	}
	return Column{
		Name:   t.ColumnName(j),
		Type:   t.columnTypes[j],
		Values: values,
	}, nil
}

// TableView is the serialisable form of a Table.
type TableView struct {
	Header      []string   `json:"header" yaml:"header"`
	ColumnTypes []ElemType `json:"columnTypes" yaml:"columnTypes"`
	NumRows     int        `json:"numRows" yaml:"numRows"`
	Rows        []Row      `json:"rows" yaml:"rows"`
}

// View returns the table's serialisable form.
func (t *Table) View() TableView {
	return TableView{
		Header:      t.Header(),
		ColumnTypes: t.ColumnTypes(),
		NumRows:     t.NumRows(),
		Rows:        t.Rows(),
	}
}

// MarshalJSON encodes the table as its TableView.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.View())
}
