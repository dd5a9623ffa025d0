package core

// Classify reports whether value looks like an unsigned decimal number.
//
// A value is Numeric when every byte is an ASCII digit or '.', with at most
// one '.'. Anything else is Text. Signs, exponents and digit separators are
// not recognised, so "-1", "1e5" and "1,000" are Text.
//
// The empty string and a lone "." are Numeric. Converting such a value to a
// float is left to the caller and fails there with a *NumericConversionError.
func Classify(value string) ElemType {
	dots := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '.':
			dots++
			if dots > 1 {
				return Text
			}
		case c < '0' || c > '9':
			return Text
		}
	}
	return Numeric
}
