package planner

import (
	"fmt"

	"mit.edu/dsg/goplan/common"
)

// LimitNode passes through at most Limit rows of its child.
type LimitNode struct {
	relBase
	Child RelNode
	Limit int
}

func NewLimitNode(child RelNode, limit int) *LimitNode {
	common.Assert(limit >= 0, "negative limit %d", limit)
	return &LimitNode{
		relBase: relBase{cluster: child.Cluster(), rowType: child.RowType()},
		Child:   child,
		Limit:   limit,
	}
}

func (n *LimitNode) Kind() Kind {
	return KindLimit
}

func (n *LimitNode) Convention() Convention {
	return ConventionNone
}

func (n *LimitNode) Children() []RelNode {
	return []RelNode{n.Child}
}

func (n *LimitNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *LimitNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindLimit, children, 1)
	return &LimitNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Child: children[0], Limit: n.Limit}
}

func (n *LimitNode) String() string {
	return fmt.Sprintf("Limit: %d", n.Limit)
}

// RowLimit returns the maximum number of rows passed through.
func (n *LimitNode) RowLimit() int {
	return n.Limit
}
