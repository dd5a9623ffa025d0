// Package core provides the delimited-text ingestion engine.
//
// This package is the heart of csvmatrix. It turns a comma-separated text
// file into a typed, read-only [Table] and has no dependency on any UI,
// transport or storage layer, so the CLI, the HTTP server and the stores all
// share it unchanged.
//
// # Reading a file
//
//	tbl, err := core.ReadRecord("scores.csv", core.HeaderPresent)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tbl.Header(), tbl.ColumnTypes())
//
// [ReadRecord] is the plain entry point. [ReadFile] and [ReadTable] accept a
// context and [Options] (delimiter, row policy, size limit, logger).
//
// # Splitting
//
// [SplitFields] is a two-state machine. A '"' toggles quoted mode anywhere in
// a line; inside quotes the delimiter is literal. There is no escape for the
// quote character and a quoted field cannot span lines. A delimiter at the
// very end of a line does not produce a trailing empty field.
//
// # Types
//
// [Classify] tags each field [Numeric] or [Text]. Numeric means ASCII digits
// with at most one '.', so "" and "." are Numeric too. After all rows are
// read, [ReconcileColumnTypes] makes a column Text if any of its cells is
// Text, and Numeric otherwise.
//
// # Error Handling
//
// Failures are typed and never silent:
//
//   - [*FileOpenError]: the path is missing or unreadable (FILE002)
//   - [*MalformedRowError]: a row's width differs from the header (VAL001),
//     unless [RowPolicyPad] is selected
//   - [*NumericConversionError]: a Numeric cell does not parse as a float
//     when converted (VAL002)
//
// [MapError] turns any of them into a coded [UserMessage] for display.
package core
