package planner

import (
	"fmt"
)

// NestedLoopJoinNode joins every row of Left with every row of Right for which the
// predicate holds. A nil predicate is a cross product. Output rows are the left fields
// followed by the right fields.
type NestedLoopJoinNode struct {
	relBase
	Left      RelNode
	Right     RelNode
	Predicate Expr
}

func NewNestedLoopJoinNode(left, right RelNode, predicate Expr) *NestedLoopJoinNode {
	return &NestedLoopJoinNode{
		relBase:   relBase{cluster: left.Cluster(), rowType: left.RowType().Concat(right.RowType())},
		Left:      left,
		Right:     right,
		Predicate: predicate,
	}
}

func (n *NestedLoopJoinNode) Kind() Kind {
	return KindNestedLoopJoin
}

func (n *NestedLoopJoinNode) Convention() Convention {
	return ConventionNone
}

func (n *NestedLoopJoinNode) Children() []RelNode {
	return []RelNode{n.Left, n.Right}
}

func (n *NestedLoopJoinNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *NestedLoopJoinNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindNestedLoopJoin, children, 2)
	return &NestedLoopJoinNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Left: children[0], Right: children[1], Predicate: n.Predicate}
}

func (n *NestedLoopJoinNode) String() string {
	if n.Predicate == nil {
		return "NestedLoopJoin: true"
	}
	return fmt.Sprintf("NestedLoopJoin: %s", n.Predicate.String())
}

// JoinPredicate returns the join condition, or nil for a cross product.
func (n *NestedLoopJoinNode) JoinPredicate() Expr {
	return n.Predicate
}
