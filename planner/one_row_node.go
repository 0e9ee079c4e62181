package planner

import "mit.edu/dsg/goplan/common"

// OneRowNode produces exactly one row with a single unnamed integer field holding 0.
type OneRowNode struct {
	relBase
}

// OneRowValue is the value of the single field produced by a OneRowNode.
var OneRowValue = common.NewIntValue(0)

// OneRowType returns the row type shared by every one-row generator.
func OneRowType() RowType {
	return NewRowType(Field{Type: common.IntType})
}

func NewOneRowNode(cluster ClusterID) *OneRowNode {
	return &OneRowNode{relBase{cluster: cluster, rowType: OneRowType()}}
}

func (n *OneRowNode) Kind() Kind {
	return KindOneRow
}

func (n *OneRowNode) Convention() Convention {
	return ConventionNone
}

func (n *OneRowNode) Children() []RelNode {
	return nil
}

func (n *OneRowNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *OneRowNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindOneRow, children, 0)
	return NewOneRowNode(cluster)
}

func (n *OneRowNode) String() string {
	return "OneRow"
}
