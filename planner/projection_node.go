package planner

import (
	"fmt"
	"strings"

	"mit.edu/dsg/goplan/common"
)

// ProjectionNode computes one output field per expression over its child's rows.
type ProjectionNode struct {
	relBase
	Child       RelNode
	Expressions []Expr
}

// NewProjectionNode builds a projection. names, when not nil, must have one entry per
// expression; otherwise bare field references keep their input name.
func NewProjectionNode(child RelNode, exprs []Expr, names []string) *ProjectionNode {
	common.Assert(names == nil || len(names) == len(exprs), "projection has %d names for %d expressions", len(names), len(exprs))
	fields := make([]Field, len(exprs))
	for i, e := range exprs {
		fields[i].Type = e.OutputType()
		if names != nil {
			fields[i].Name = names[i]
		} else if idx, ok := ColumnIndex(e); ok {
			fields[i].Name = child.RowType().Field(idx).Name
		}
	}
	return &ProjectionNode{
		relBase:     relBase{cluster: child.Cluster(), rowType: NewRowType(fields...)},
		Child:       child,
		Expressions: exprs,
	}
}

func (n *ProjectionNode) Kind() Kind {
	return KindProjection
}

func (n *ProjectionNode) Convention() Convention {
	return ConventionNone
}

func (n *ProjectionNode) Children() []RelNode {
	return []RelNode{n.Child}
}

func (n *ProjectionNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *ProjectionNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindProjection, children, 1)
	return &ProjectionNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Child: children[0], Expressions: n.Expressions}
}

func (n *ProjectionNode) String() string {
	return fmt.Sprintf("Projection: %s", ExprList(n.Expressions))
}

// ExprList renders expressions as a comma-separated list.
func ExprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Projections returns the expressions computing each output field.
func (n *ProjectionNode) Projections() []Expr {
	return n.Expressions
}
