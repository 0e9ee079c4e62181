package pull

import (
	"fmt"
	"math"
	"strconv"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// FilterNode passes through the input rows satisfying the predicate.
type FilterNode struct {
	base
	Predicate planner.Expr
}

func NewFilterNode(child planner.RelNode, predicate planner.Expr) *FilterNode {
	return &FilterNode{
		base:      newBase(KindFilter, child.Cluster(), child.RowType(), []planner.RelNode{child}),
		Predicate: predicate,
	}
}

func (n *FilterNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *FilterNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &FilterNode{base: n.rebind(cluster, children), Predicate: n.Predicate}
}

func (n *FilterNode) String() string {
	return fmt.Sprintf("PullFilter: %s", n.Predicate)
}

func (n *FilterNode) SelfCost(reg *metadata.Registry) planner.Cost {
	in := inputRows(reg, n, 0)
	return planner.Cost{Rows: in * metadata.FilterSelectivity, CPU: in}
}

func (n *FilterNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	inputs, err := ctx.compileInputs(n)
	if err != nil {
		return nil, err
	}
	return &streamdef.StreamDef{
		Kind:   streamdef.KindFilter,
		Fields: fieldDefs(n.RowType()),
		Exprs:  []streamdef.ExprDef{n.Predicate.Describe()},
		Inputs: inputs,
	}, nil
}

// ProjectionNode computes one output field per expression.
type ProjectionNode struct {
	base
	Expressions []planner.Expr
}

// NewProjectionNode builds the node with the row type of the logical projection it
// implements.
func NewProjectionNode(child planner.RelNode, rowType planner.RowType, exprs []planner.Expr) *ProjectionNode {
	return &ProjectionNode{
		base:        newBase(KindProjection, child.Cluster(), rowType, []planner.RelNode{child}),
		Expressions: exprs,
	}
}

func (n *ProjectionNode) Projections() []planner.Expr {
	return n.Expressions
}

func (n *ProjectionNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *ProjectionNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &ProjectionNode{base: n.rebind(cluster, children), Expressions: n.Expressions}
}

func (n *ProjectionNode) String() string {
	return fmt.Sprintf("PullProjection: %s", planner.ExprList(n.Expressions))
}

func (n *ProjectionNode) SelfCost(reg *metadata.Registry) planner.Cost {
	in := inputRows(reg, n, 0)
	return planner.Cost{Rows: in, CPU: in * float64(len(n.Expressions))}
}

func (n *ProjectionNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	inputs, err := ctx.compileInputs(n)
	if err != nil {
		return nil, err
	}
	return &streamdef.StreamDef{
		Kind:   streamdef.KindProjection,
		Fields: fieldDefs(n.RowType()),
		Exprs:  describeAll(n.Expressions),
		Inputs: inputs,
	}, nil
}

// LimitNode passes through at most Limit input rows.
type LimitNode struct {
	base
	Limit int
}

func NewLimitNode(child planner.RelNode, limit int) *LimitNode {
	return &LimitNode{
		base:  newBase(KindLimit, child.Cluster(), child.RowType(), []planner.RelNode{child}),
		Limit: limit,
	}
}

func (n *LimitNode) RowLimit() int {
	return n.Limit
}

func (n *LimitNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *LimitNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &LimitNode{base: n.rebind(cluster, children), Limit: n.Limit}
}

func (n *LimitNode) String() string {
	return fmt.Sprintf("PullLimit: %d", n.Limit)
}

func (n *LimitNode) SelfCost(reg *metadata.Registry) planner.Cost {
	rows := math.Min(inputRows(reg, n, 0), float64(n.Limit))
	return planner.Cost{Rows: rows, CPU: rows}
}

func (n *LimitNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	inputs, err := ctx.compileInputs(n)
	if err != nil {
		return nil, err
	}
	return &streamdef.StreamDef{
		Kind:   streamdef.KindLimit,
		Fields: fieldDefs(n.RowType()),
		Params: map[string]string{streamdef.ParamLimit: strconv.Itoa(n.Limit)},
		Inputs: inputs,
	}, nil
}

// SortNode sorts its input by fields of the input row.
type SortNode struct {
	base
	OrderBy []planner.OrderByClause
}

func NewSortNode(child planner.RelNode, orderBy []planner.OrderByClause) *SortNode {
	for _, o := range orderBy {
		_, ok := planner.ColumnIndex(o.Expr)
		common.Assert(ok, "pull sort key %s is not a field reference", o.Expr)
	}
	return &SortNode{
		base:    newBase(KindSort, child.Cluster(), child.RowType(), []planner.RelNode{child}),
		OrderBy: orderBy,
	}
}

func (n *SortNode) SortOrder() []planner.OrderByClause {
	return n.OrderBy
}

func (n *SortNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *SortNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &SortNode{base: n.rebind(cluster, children), OrderBy: n.OrderBy}
}

func (n *SortNode) String() string {
	return fmt.Sprintf("PullSort: %s", planner.OrderByList(n.OrderBy))
}

func (n *SortNode) SelfCost(reg *metadata.Registry) planner.Cost {
	in := inputRows(reg, n, 0)
	return planner.Cost{Rows: in, CPU: in * math.Log2(in+2)}
}

func (n *SortNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	inputs, err := ctx.compileInputs(n)
	if err != nil {
		return nil, err
	}
	fields := make([]int, len(n.OrderBy))
	directions := make([]int, len(n.OrderBy))
	for i, o := range n.OrderBy {
		fields[i], _ = planner.ColumnIndex(o.Expr)
		directions[i] = int(o.Direction)
	}
	return &streamdef.StreamDef{
		Kind:   streamdef.KindSort,
		Fields: fieldDefs(n.RowType()),
		Params: map[string]string{
			streamdef.ParamColumns:    streamdef.FormatIntList(fields),
			streamdef.ParamDirections: streamdef.FormatIntList(directions),
		},
		Inputs: inputs,
	}, nil
}

// MaterializeNode buffers its whole input in a buffer reserved at conversion time, so
// that rescans replay the buffer instead of re-running the input.
type MaterializeNode struct {
	base
	Resource planner.PlaceholderID
}

func NewMaterializeNode(child planner.RelNode, resource planner.PlaceholderID) *MaterializeNode {
	return &MaterializeNode{
		base:     newBase(KindMaterialize, child.Cluster(), child.RowType(), []planner.RelNode{child}),
		Resource: resource,
	}
}

func (n *MaterializeNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *MaterializeNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &MaterializeNode{base: n.rebind(cluster, children), Resource: n.Resource}
}

func (n *MaterializeNode) String() string {
	return fmt.Sprintf("PullMaterialize: %s", n.Resource)
}

func (n *MaterializeNode) SelfCost(reg *metadata.Registry) planner.Cost {
	in := inputRows(reg, n, 0)
	return planner.Cost{Rows: in, CPU: in}
}

func (n *MaterializeNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	inputs, err := ctx.compileInputs(n)
	if err != nil {
		return nil, err
	}
	return &streamdef.StreamDef{
		Kind:   streamdef.KindMaterialize,
		Fields: fieldDefs(n.RowType()),
		Params: map[string]string{streamdef.ParamResourceID: strconv.Itoa(ctx.Resolve(n.Resource))},
		Inputs: inputs,
	}, nil
}
