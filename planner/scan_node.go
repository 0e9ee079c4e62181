package planner

import (
	"fmt"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
)

// TableScanNode reads the rows of a catalog table. The table is a non-owning reference:
// the catalog outlives every plan built on it.
type TableScanNode struct {
	relBase
	Table   *catalog.Table
	columns []int // projected column ordinals; nil reads every column
}

// NewTableScanNode builds a scan of table. When columns is nil every column is read in
// table order; otherwise the output fields are the listed columns in the listed order.
func NewTableScanNode(cluster ClusterID, table *catalog.Table, columns []int) (*TableScanNode, error) {
	common.Assert(table != nil, "table scan without a table")
	var fields []Field
	if columns == nil {
		for i := range table.Columns {
			fields = append(fields, Field{Name: table.Columns[i].Name, Type: table.Columns[i].Type})
		}
	} else {
		for _, ord := range columns {
			col := table.Column(ord)
			if col == nil {
				return nil, common.NewError(common.NoSuchObjectError,
					"table %q has no column with ordinal %d", table.Name, ord)
			}
			fields = append(fields, Field{Name: col.Name, Type: col.Type})
		}
		columns = append([]int(nil), columns...)
	}
	return &TableScanNode{
		relBase: relBase{cluster: cluster, rowType: NewRowType(fields...)},
		Table:   table,
		columns: columns,
	}, nil
}

// Columns returns the projected column ordinals, or nil for a full-width scan.
func (n *TableScanNode) Columns() []int {
	return n.columns
}

// ColumnSet exposes the scanned table's columns to catalog mappers.
func (n *TableScanNode) ColumnSet() catalog.ColumnSet {
	return n.Table
}

// Mapper returns the mapping between the table's columns and this node's output fields.
func (n *TableScanNode) Mapper() catalog.ColumnMapper {
	if n.columns == nil {
		return catalog.IdentityMapper{}
	}
	return catalog.ProjectionMapper{Columns: n.columns}
}

func (n *TableScanNode) Kind() Kind {
	return KindTableScan
}

func (n *TableScanNode) Convention() Convention {
	return ConventionNone
}

func (n *TableScanNode) Children() []RelNode {
	return nil
}

func (n *TableScanNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *TableScanNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindTableScan, children, 0)
	return &TableScanNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Table: n.Table, columns: n.columns}
}

func (n *TableScanNode) String() string {
	if n.columns == nil {
		return fmt.Sprintf("TableScan: %s(%d)", n.Table.Name, n.Table.Oid)
	}
	return fmt.Sprintf("TableScan: %s(%d) columns=%v", n.Table.Name, n.Table.Oid, n.columns)
}
