package core

// ReconcileColumnTypes derives one type per column from a finished grid.
//
// Column j is Numeric iff no row holds a Text field at index j, and Text
// otherwise. Every row is scanned; the first row carries no special weight.
// A column with no cells at all (header-only table) is Numeric.
func ReconcileColumnTypes(rows []Row, columns int) []ElemType {
	types := make([]ElemType, columns)
	for j := 0; j < columns; j++ {
		for _, row := range rows {
			if j < len(row) && row[j].Type == Text {
				types[j] = Text
				break
			}
		}
	}
	return types
}
