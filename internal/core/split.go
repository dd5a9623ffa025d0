package core

import "strings"

const quoteChar = '"'

// SplitFields splits one line on commas, honoring double-quote toggling.
// See SplitFieldsDelim.
func SplitFields(line string) []string {
	return SplitFieldsDelim(line, ',')
}

// SplitFieldsDelim splits one line (without its terminator) into raw fields.
//
// Outside quotes, delim ends the current field and '"' enters quoted mode.
// Inside quotes, '"' leaves quoted mode and everything else, delim included,
// is kept literally. Quote characters are never part of a value, and quoting
// may start anywhere inside a field. There is no escape for a literal quote.
//
// A trailing empty field is not emitted: "a," yields ["a"] and "" yields no
// fields at all. Empty fields between delimiters are kept: "a,,b" yields
// ["a", "", "b"].
func SplitFieldsDelim(line string, delim byte) []string {
	var (
		fields []string
		buf    strings.Builder
		quoted bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		if quoted {
			if c == quoteChar {
				quoted = false
			} else {
				buf.WriteByte(c)
			}
			continue
		}

		switch c {
		case delim:
			fields = append(fields, buf.String())
			buf.Reset()
		case quoteChar:
			quoted = true
		default:
			buf.WriteByte(c)
		}
	}

	if buf.Len() > 0 {
		fields = append(fields, buf.String())
	}
	return fields
}
