package core

import (
	"fmt"
	"log/slog"
)

// HeaderPresent is the header flag value that enables header parsing.
// Any other value means the first line is data.
const HeaderPresent = "1"

// ElemType is the elementary type of a field or column.
type ElemType int

const (
	Numeric ElemType = iota
	Text
)

// String returns the lowercase name of the type.
func (t ElemType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("ElemType(%d)", int(t))
	}
}

// MarshalText encodes the type as "numeric" or "text" for JSON and YAML output.
func (t ElemType) MarshalText() ([]byte, error) {
	switch t {
	case Numeric, Text:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("invalid element type %d", int(t))
	}
}

// UnmarshalText decodes "numeric" or "text".
func (t *ElemType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*t = Numeric
	case "text":
		*t = Text
	default:
		return fmt.Errorf("invalid element type %q", string(b))
	}
	return nil
}

// Field is one cell: the raw string as read plus its classified type.
type Field struct {
	Value string   `json:"value" yaml:"value"`
	Type  ElemType `json:"type" yaml:"type"`
}

// NewField classifies value and returns the resulting Field.
func NewField(value string) Field {
	return Field{Value: value, Type: Classify(value)}
}

// Row is one data line, one Field per column in source order.
type Row []Field

// Values returns the raw string values of the row.
func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

// RowPolicy controls what happens when a row's field count differs from
// the table's column count.
type RowPolicy int

const (
	// RowPolicyStrict fails the read with a *MalformedRowError.
	RowPolicyStrict RowPolicy = iota
	// RowPolicyPad pads short rows with empty Text fields and truncates long rows.
	RowPolicyPad
)

// ParseRowPolicy converts "strict" or "pad" to a RowPolicy.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch s {
	case "", "strict":
		return RowPolicyStrict, nil
	case "pad":
		return RowPolicyPad, nil
	default:
		return RowPolicyStrict, fmt.Errorf("unknown row policy %q (want strict or pad)", s)
	}
}

func (p RowPolicy) String() string {
	if p == RowPolicyPad {
		return "pad"
	}
	return "strict"
}

// Options tunes a read. The zero value reads comma-separated input with the
// strict row policy, no size limit, and the default logger.
type Options struct {
	// Delimiter separates fields (default: ',').
	Delimiter byte

	// RowPolicy decides how uneven rows are handled (default: strict).
	RowPolicy RowPolicy

	// MaxBytes limits the decoded input size; 0 means unlimited.
	MaxBytes int64

	// Logger receives debug and warning messages.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}
