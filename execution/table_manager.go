package execution

import (
	"github.com/puzpuzpuz/xsync/v3"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
)

// TableSource supplies the rows of base tables to table scans.
type TableSource interface {
	// Rows returns a snapshot of the rows of a table, in declared column order.
	Rows(oid common.ObjectID) ([]common.Row, error)
}

// TableManager keeps the rows of every catalog table in memory.
// Since the schema does not change while plans run, tables are created eagerly for every
// table in the catalog and a scan of an unknown oid is an error.
type TableManager struct {
	schemas map[common.ObjectID]*catalog.Table
	rows    *xsync.MapOf[common.ObjectID, []common.Row]
}

// NewTableManager creates an empty table for every table defined in the Catalog.
func NewTableManager(cat *catalog.Catalog) *TableManager {
	tm := &TableManager{
		schemas: make(map[common.ObjectID]*catalog.Table),
		rows:    xsync.NewMapOf[common.ObjectID, []common.Row](),
	}
	for _, t := range cat.Tables {
		tm.schemas[t.Oid] = t
		tm.rows.Store(t.Oid, nil)
	}
	return tm
}

// Insert appends rows to a table after checking them against its declared columns.
// Readers holding an earlier snapshot do not see the new rows.
func (tm *TableManager) Insert(oid common.ObjectID, rows ...common.Row) error {
	table, ok := tm.schemas[oid]
	if !ok {
		return common.NewError(common.NoSuchObjectError, "table oid %d does not exist", oid)
	}
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			return common.NewError(common.SchemaMismatchError,
				"row %d has %d values, table '%s' has %d columns", i, len(row), table.Name, len(table.Columns))
		}
		for j, v := range row {
			if v.Type() != table.Columns[j].Type {
				return common.NewError(common.SchemaMismatchError,
					"row %d column '%s': got %s, want %s", i, table.Columns[j].Name, v.Type(), table.Columns[j].Type)
			}
		}
	}
	tm.rows.Compute(oid, func(old []common.Row, _ bool) ([]common.Row, bool) {
		next := make([]common.Row, 0, len(old)+len(rows))
		next = append(next, old...)
		return append(next, rows...), false
	})
	return nil
}

// Rows implements TableSource.
func (tm *TableManager) Rows(oid common.ObjectID) ([]common.Row, error) {
	if rows, exists := tm.rows.Load(oid); exists {
		return rows, nil
	}
	return nil, common.NewError(common.NoSuchObjectError, "table oid %d does not exist", oid)
}
