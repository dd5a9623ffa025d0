package core

// errors.go defines the typed failures an ingestion can report.
//
// Every error below matches its sentinel with errors.Is, and the structured
// form can be recovered with errors.As:
//
//	var mre *MalformedRowError
//	if errors.As(err, &mre) {
//	    log.Printf("line %d has %d fields, want %d", mre.Line, mre.Got, mre.Want)
//	}

import (
	"errors"
	"fmt"
)

var (
	// ErrFileOpen is matched by every *FileOpenError.
	ErrFileOpen = errors.New("cannot open file")

	// ErrMalformedRow is matched by every *MalformedRowError.
	ErrMalformedRow = errors.New("malformed row")

	// ErrNumericConversion is matched by every *NumericConversionError.
	ErrNumericConversion = errors.New("numeric conversion failed")

	// ErrFileTooLarge is returned when input exceeds Options.MaxBytes.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedEncoding is returned by Decompress for unknown encodings.
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")

	// ErrColumnRange is returned by accessors given an out-of-range column.
	ErrColumnRange = errors.New("column index out of range")

	// ErrRowRange is returned by accessors given an out-of-range row.
	ErrRowRange = errors.New("row index out of range")
)

// FileOpenError reports that the input file could not be opened or decoded.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("cannot open file %q: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error { return e.Err }

func (e *FileOpenError) Is(target error) bool { return target == ErrFileOpen }

// MalformedRowError reports a data line whose field count differs from the
// table's column count. Line is the 1-based physical line number.
type MalformedRowError struct {
	Line int
	Got  int
	Want int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at line %d: got %d fields, want %d", e.Line, e.Got, e.Want)
}

func (e *MalformedRowError) Is(target error) bool { return target == ErrMalformedRow }

// NumericConversionError reports a cell that could not be converted to a
// float. Row and Column are 0-based positions in the data grid; they are -1
// when the failing Field was converted on its own.
type NumericConversionError struct {
	Row    int
	Column int
	Value  string
	Err    error
}

func (e *NumericConversionError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("numeric conversion failed for %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("numeric conversion failed at row %d, column %d (%q): %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *NumericConversionError) Unwrap() error { return e.Err }

func (e *NumericConversionError) Is(target error) bool { return target == ErrNumericConversion }
