// Package bind materializes a finished core.Table into typed Arrow columns
// and Parquet files.
//
// Numeric columns become float64 arrays and Text columns become utf8 arrays.
// Conversion happens here, at the edge: a Numeric-tagged cell that does not
// parse as a float (the empty string, a lone ".") fails the whole
// materialization with a *core.NumericConversionError.
package bind

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

// Schema returns the Arrow schema for t. Column names come from the header,
// or col1..colN when the table has none.
func Schema(t *core.Table) *arrow.Schema {
	types := t.ColumnTypes()
	fields := make([]arrow.Field, len(types))
	for j, et := range types {
		fields[j] = arrow.Field{
			Name:     t.ColumnName(j),
			Type:     arrowType(et),
			Nullable: false,
		}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(et core.ElemType) arrow.DataType {
	if et == core.Numeric {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// Record builds a single Arrow record holding every row of t. The caller
// owns the record and must Release it.
func Record(t *core.Table, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	schema := Schema(t)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	types := t.ColumnTypes()
	for i, row := range t.Rows() {
		for j, et := range types {
			cell := row[j]
			switch et {
			case core.Numeric:
				v, err := strconv.ParseFloat(cell.Value, 64)
				if err != nil {
					return nil, &core.NumericConversionError{Row: i, Column: j, Value: cell.Value, Err: err}
				}
				b.Field(j).(*array.Float64Builder).Append(v)
			default:
				b.Field(j).(*array.StringBuilder).Append(cell.Value)
			}
		}
	}

	return b.NewRecord(), nil
}

// WriteParquet writes t to w as a Snappy-compressed Parquet file with the
// Arrow schema stored in the file metadata.
func WriteParquet(w io.Writer, t *core.Table) error {
	mem := memory.NewGoAllocator()
	rec, err := Record(t, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// pqarrow closes an io.Closer sink on Close; the caller owns w.
	writer, err := pqarrow.NewFileWriter(rec.Schema(), struct{ io.Writer }{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}

	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("write parquet record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
