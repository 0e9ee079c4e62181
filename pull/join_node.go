package pull

import (
	"fmt"

	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// NestedLoopJoinNode rescans its right input once per left row.
type NestedLoopJoinNode struct {
	base
	Predicate planner.Expr
}

func NewNestedLoopJoinNode(left, right planner.RelNode, predicate planner.Expr) *NestedLoopJoinNode {
	return &NestedLoopJoinNode{
		base:      newBase(KindNestedLoopJoin, left.Cluster(), left.RowType().Concat(right.RowType()), []planner.RelNode{left, right}),
		Predicate: predicate,
	}
}

func (n *NestedLoopJoinNode) JoinPredicate() planner.Expr {
	return n.Predicate
}

func (n *NestedLoopJoinNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *NestedLoopJoinNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &NestedLoopJoinNode{base: n.rebind(cluster, children), Predicate: n.Predicate}
}

func (n *NestedLoopJoinNode) String() string {
	if n.Predicate == nil {
		return "PullNestedLoopJoin: true"
	}
	return fmt.Sprintf("PullNestedLoopJoin: %s", n.Predicate)
}

func (n *NestedLoopJoinNode) SelfCost(reg *metadata.Registry) planner.Cost {
	left, right := inputRows(reg, n, 0), inputRows(reg, n, 1)
	rows, _ := metadata.RowCount(reg, n)
	return planner.Cost{Rows: rows, CPU: left * right}
}

func (n *NestedLoopJoinNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	inputs, err := ctx.compileInputs(n)
	if err != nil {
		return nil, err
	}
	def := &streamdef.StreamDef{
		Kind:   streamdef.KindNestedLoopJoin,
		Fields: fieldDefs(n.RowType()),
		Inputs: inputs,
	}
	if n.Predicate != nil {
		def.Exprs = []streamdef.ExprDef{n.Predicate.Describe()}
	}
	return def, nil
}
