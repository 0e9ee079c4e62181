package planner

import (
	"fmt"

	"mit.edu/dsg/goplan/common"
)

// ValuesNode produces a fixed, possibly empty, set of literal rows.
type ValuesNode struct {
	relBase
	rows []common.Row
}

// NewValuesNode checks every row against rowType. A row with the wrong arity, or a
// value whose type differs from its field's type, is a SchemaMismatchError. NULLs must
// still carry their field's type.
func NewValuesNode(cluster ClusterID, rowType RowType, rows []common.Row) (*ValuesNode, error) {
	types := rowType.Types()
	for i, row := range rows {
		if len(row) != len(types) {
			return nil, common.NewError(common.SchemaMismatchError,
				"values row %d has %d fields, expected %d", i, len(row), len(types))
		}
		for j, v := range row {
			if v.Type() != types[j] {
				return nil, common.NewError(common.SchemaMismatchError,
					"values row %d field %d has type %s, expected %s", i, j, v.Type(), types[j])
			}
		}
	}
	copied := make([]common.Row, len(rows))
	for i, row := range rows {
		copied[i] = append(common.Row(nil), row...)
	}
	return &ValuesNode{relBase: relBase{cluster: cluster, rowType: rowType}, rows: copied}, nil
}

// Rows returns the literal rows. Callers must not modify them.
func (n *ValuesNode) Rows() []common.Row {
	return n.rows
}

func (n *ValuesNode) Kind() Kind {
	return KindValues
}

func (n *ValuesNode) Convention() Convention {
	return ConventionNone
}

func (n *ValuesNode) Children() []RelNode {
	return nil
}

func (n *ValuesNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *ValuesNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindValues, children, 0)
	return &ValuesNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, rows: n.rows}
}

func (n *ValuesNode) String() string {
	return fmt.Sprintf("Values: %d rows %s", len(n.rows), n.rowType)
}
