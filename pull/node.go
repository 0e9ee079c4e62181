// Package pull implements the pull-based execution convention: physical plan nodes that
// compile into stream descriptions, the rules converting logical nodes into them, and
// the metadata and cost model they report.
package pull

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// Convention is the calling convention of nodes executed by the pull engine.
const Convention planner.Convention = "PULL"

// Kinds of pull nodes.
const (
	KindOneRow         planner.Kind = "PullOneRow"
	KindValues         planner.Kind = "PullValues"
	KindTableScan      planner.Kind = "PullTableScan"
	KindFilter         planner.Kind = "PullFilter"
	KindProjection     planner.Kind = "PullProjection"
	KindLimit          planner.Kind = "PullLimit"
	KindSort           planner.Kind = "PullSort"
	KindMaterialize    planner.Kind = "PullMaterialize"
	KindNestedLoopJoin planner.Kind = "PullNestedLoopJoin"
)

// Node is a plan node in the pull convention.
type Node interface {
	planner.RelNode

	// ToStreamDef compiles the node and its inputs.
	ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error)

	// SelfCost estimates the cost of this node alone, excluding its inputs.
	SelfCost(reg *metadata.Registry) planner.Cost
}

// base carries the state shared by every pull node.
type base struct {
	planner.RelBase
	kind     planner.Kind
	children []planner.RelNode
}

func newBase(kind planner.Kind, cluster planner.ClusterID, rowType planner.RowType, children []planner.RelNode) base {
	return base{
		RelBase:  planner.NewRelBase(cluster, rowType),
		kind:     kind,
		children: append([]planner.RelNode(nil), children...),
	}
}

// rebind returns a copy of b in cluster with the given inputs.
func (b base) rebind(cluster planner.ClusterID, children []planner.RelNode) base {
	planner.CheckArity(b.kind, children, len(b.children))
	return newBase(b.kind, cluster, b.RowType(), children)
}

func (b base) Kind() planner.Kind {
	return b.kind
}

func (b base) Convention() planner.Convention {
	return Convention
}

func (b base) Children() []planner.RelNode {
	return b.children
}

func fieldDefs(rowType planner.RowType) []streamdef.FieldDef {
	out := make([]streamdef.FieldDef, rowType.NumFields())
	for i := range out {
		f := rowType.Field(i)
		out[i] = streamdef.FieldDef{Name: f.Name, Type: f.Type}
	}
	return out
}

// inputRows returns the row estimate of the i-th input, or the default table estimate
// when the registry has no answer.
func inputRows(reg *metadata.Registry, node planner.RelNode, i int) float64 {
	if n, ok := metadata.RowCount(reg, node.Children()[i]); ok {
		return n
	}
	return metadata.DefaultTableRows
}

func describeAll(exprs []planner.Expr) []streamdef.ExprDef {
	out := make([]streamdef.ExprDef, len(exprs))
	for i, e := range exprs {
		out[i] = e.Describe()
	}
	return out
}

func copyRows(rows []common.Row) []common.Row {
	out := make([]common.Row, len(rows))
	for i, r := range rows {
		out[i] = append(common.Row(nil), r...)
	}
	return out
}
