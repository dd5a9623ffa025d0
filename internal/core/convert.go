package core

// convert.go turns classified cells into native values for consumers of a
// finished Table (Arrow materialization, SQL stores, JSON).
//
// Classification is deliberately loose: "" and "." are Numeric but are not
// numbers. The Float64 helpers report those as *NumericConversionError; the
// ToPg* helpers follow database conventions and map empty input to NULL.

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

var errTextCell = errors.New("cell is classified as text")

// Float64 parses a Numeric field. Text fields and Numeric fields that do not
// parse (the empty string, a lone ".") return a *NumericConversionError.
func (f Field) Float64() (float64, error) {
	v, err := f.parseFloat()
	if err != nil {
		return 0, &NumericConversionError{Row: -1, Column: -1, Value: f.Value, Err: err}
	}
	return v, nil
}

func (f Field) parseFloat() (float64, error) {
	if f.Type != Numeric {
		return 0, errTextCell
	}
	return strconv.ParseFloat(f.Value, 64)
}

// Float64Column converts every cell of column j. The column must be Numeric;
// the first cell that fails conversion aborts with its row and column.
func (t *Table) Float64Column(j int) ([]float64, error) {
	if j < 0 || j >= len(t.columnTypes) {
		return nil, ErrColumnRange
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		v, err := row[j].parseFloat()
		if err != nil {
			return nil, &NumericConversionError{Row: i, Column: j, Value: row[j].Value, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// ToPgText converts a cell to pgtype.Text. Every value, including the empty
// string, is stored as-is.
func ToPgText(f Field) pgtype.Text {
	return pgtype.Text{String: f.Value, Valid: true}
}

// ToPgFloat8 converts a Numeric cell to pgtype.Float8. Empty or whitespace
// input is NULL; anything else that does not parse is an error.
func ToPgFloat8(f Field) (pgtype.Float8, error) {
	if strings.TrimSpace(f.Value) == "" {
		return pgtype.Float8{Valid: false}, nil
	}
	v, err := f.Float64()
	if err != nil {
		return pgtype.Float8{}, err
	}
	return pgtype.Float8{Float64: v, Valid: true}, nil
}
