package core

// ingest.go drives line-by-line reading and builds the Table.
//
// The flow for one read:
//
//  1. Open the input (file handle released on every exit path)
//  2. Strip a BOM, decompress .gz/.zst, sanitize invalid UTF-8
//  3. If a header is requested, split line 1 into column names
//  4. Split and classify every remaining line, checking its width
//  5. Reconcile column types over the finished grid
//
// Blank lines carry no fields and are skipped rather than producing empty rows.

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ReadRecord reads the delimited file at path with default options.
// headerFlag equal to HeaderPresent ("1") treats line 1 as the header; any
// other value treats every line as data.
//
// A missing file, a directory or any other input that cannot be opened and
// read yields a *FileOpenError, never an empty table. Blank lines are skipped
// rather than kept as empty rows, and invalid UTF-8 bytes in a field are
// replaced with '?'.
func ReadRecord(path, headerFlag string) (*Table, error) {
	return ReadFile(context.Background(), path, headerFlag == HeaderPresent, Options{})
}

// ReadFile reads the delimited file at path. Files ending in .gz or .zst are
// decompressed transparently.
func ReadFile(ctx context.Context, path string, hasHeader bool, opts Options) (*Table, error) {
	r, closeInput, err := openInput(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	defer closeInput()

	t, err := ReadTable(ctx, r, hasHeader, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadTable builds a Table from r. The context is checked between lines; a
// cancelled read returns the context's error and no table.
func ReadTable(ctx context.Context, r io.Reader, hasHeader bool, opts Options) (*Table, error) {
	opts.defaults()
	start := time.Now()

	cr := &countingReader{r: r, limit: opts.MaxBytes}
	lr, err := newLineReader(cr)
	if err != nil {
		return nil, err
	}

	var (
		header  []string
		rows    []Row
		columns = -1 // unknown until the header or first row fixes it
	)

	if hasHeader {
		line, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if ok {
			header = SplitFieldsDelim(line, opts.Delimiter)
			if len(header) > 0 {
				columns = len(header)
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		raw := SplitFieldsDelim(line, opts.Delimiter)
		if len(raw) == 0 {
			opts.Logger.Debug("skipping blank line", "line", lr.line)
			continue
		}
		if columns < 0 {
			columns = len(raw)
		}

		row, err := buildRow(raw, columns, lr.line, opts)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if columns < 0 {
		columns = 0
	}
	t := newTable(header, rows, columns)

	opts.Logger.Debug("table ingested",
		"rows", t.NumRows(),
		"columns", t.NumColumns(),
		"bytes", cr.n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return t, nil
}

// buildRow classifies raw fields and applies the row policy when the width
// does not match the table's column count.
func buildRow(raw []string, columns, line int, opts Options) (Row, error) {
	if len(raw) != columns {
		if opts.RowPolicy != RowPolicyPad {
			return nil, &MalformedRowError{Line: line, Got: len(raw), Want: columns}
		}
		opts.Logger.Warn("row width mismatch, padding",
			"line", line,
			"got", len(raw),
			"want", columns,
		)
	}

	row := make(Row, columns)
	for j := range row {
		if j < len(raw) {
			row[j] = NewField(raw[j])
		} else {
			// Padding is Text so it can never fail numeric conversion.
			row[j] = Field{Value: "", Type: Text}
		}
	}
	return row, nil
}
