package catalog

// NotFound is returned by ColumnMapper methods that answer with an ordinal when the
// requested field or column does not exist in the expression's row shape.
const NotFound = -1

// ColumnSet is the ordered, read-only sequence of declared columns of a catalog table.
type ColumnSet interface {
	// NumColumns returns the declared column count.
	NumColumns() int
	// Column returns the column at the declared ordinal, or nil if out of range.
	Column(ordinal int) *Column
}

// ColumnSetProvider is implemented by expressions that hold a lookup reference to a
// catalog column set (table scans and their physical counterparts).
type ColumnSetProvider interface {
	ColumnSet() ColumnSet
}

// ColumnMapper translates between the declared columns of an expression's underlying
// table and the field positions of the expression's current row type. All methods are
// total: out-of-range inputs yield NotFound (or a false second result), never a panic.
type ColumnMapper interface {
	// ColumnToField returns the row-type field ordinal holding col.
	ColumnToField(expr ColumnSetProvider, col *Column) int
	// FieldToColumnOrdinal returns the declared ordinal of the column behind fieldNo.
	FieldToColumnOrdinal(expr ColumnSetProvider, fieldNo int) int
	// FieldToColumn returns the column behind fieldNo.
	FieldToColumn(expr ColumnSetProvider, fieldNo int) (*Column, bool)
}

// IdentityMapper assumes that field i of the expression's row type is declared column i
// of its table.
//
// This is NOT correct once the expression projects columns away, reorders them or widens
// their types: the mapper only knows the declared column count. Expressions that reshape
// rows must supply a specialized mapper (see ProjectionMapper) instead.
type IdentityMapper struct{}

var _ ColumnMapper = IdentityMapper{}

func numColumns(expr ColumnSetProvider) int {
	if expr == nil {
		return 0
	}
	cs := expr.ColumnSet()
	if cs == nil {
		return 0
	}
	return cs.NumColumns()
}

func (IdentityMapper) ColumnToField(expr ColumnSetProvider, col *Column) int {
	if col == nil || col.Ordinal < 0 || col.Ordinal >= numColumns(expr) {
		return NotFound
	}
	return col.Ordinal
}

func (IdentityMapper) FieldToColumnOrdinal(expr ColumnSetProvider, fieldNo int) int {
	if fieldNo < 0 || fieldNo >= numColumns(expr) {
		return NotFound
	}
	return fieldNo
}

func (m IdentityMapper) FieldToColumn(expr ColumnSetProvider, fieldNo int) (*Column, bool) {
	ordinal := m.FieldToColumnOrdinal(expr, fieldNo)
	if ordinal == NotFound {
		return nil, false
	}
	col := expr.ColumnSet().Column(ordinal)
	return col, col != nil
}

// ProjectionMapper maps an expression that exposes a subset (or a permutation) of its
// table's columns. Columns[i] is the declared ordinal of the column behind field i.
type ProjectionMapper struct {
	Columns []int
}

var _ ColumnMapper = ProjectionMapper{}

func (m ProjectionMapper) ColumnToField(expr ColumnSetProvider, col *Column) int {
	if col == nil || col.Ordinal < 0 || col.Ordinal >= numColumns(expr) {
		return NotFound
	}
	for field, ordinal := range m.Columns {
		if ordinal == col.Ordinal {
			return field
		}
	}
	return NotFound
}

func (m ProjectionMapper) FieldToColumnOrdinal(expr ColumnSetProvider, fieldNo int) int {
	if fieldNo < 0 || fieldNo >= len(m.Columns) {
		return NotFound
	}
	ordinal := m.Columns[fieldNo]
	if ordinal < 0 || ordinal >= numColumns(expr) {
		return NotFound
	}
	return ordinal
}

func (m ProjectionMapper) FieldToColumn(expr ColumnSetProvider, fieldNo int) (*Column, bool) {
	ordinal := m.FieldToColumnOrdinal(expr, fieldNo)
	if ordinal == NotFound {
		return nil, false
	}
	col := expr.ColumnSet().Column(ordinal)
	return col, col != nil
}
