package planner

import (
	"fmt"
)

// FilterNode keeps the rows of its child for which the predicate is true.
type FilterNode struct {
	relBase
	Child     RelNode
	Predicate Expr
}

func NewFilterNode(child RelNode, predicate Expr) *FilterNode {
	return &FilterNode{
		relBase:   relBase{cluster: child.Cluster(), rowType: child.RowType()},
		Child:     child,
		Predicate: predicate,
	}
}

func (n *FilterNode) Kind() Kind {
	return KindFilter
}

func (n *FilterNode) Convention() Convention {
	return ConventionNone
}

func (n *FilterNode) Children() []RelNode {
	return []RelNode{n.Child}
}

func (n *FilterNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *FilterNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindFilter, children, 1)
	return &FilterNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Child: children[0], Predicate: n.Predicate}
}

func (n *FilterNode) String() string {
	return fmt.Sprintf("Filter: %s", n.Predicate.String())
}
