package planner

import (
	"fmt"
	"strings"
)

type SortDirection int

const (
	SortOrderAscending SortDirection = iota
	SortOrderDescending
)

func (d SortDirection) String() string {
	if d == SortOrderDescending {
		return "DESC"
	}
	return "ASC"
}

type OrderByClause struct {
	Expr      Expr
	Direction SortDirection
}

// SortNode sorts the input rows.
type SortNode struct {
	relBase
	Child   RelNode
	OrderBy []OrderByClause
}

func NewSortNode(child RelNode, orderBy []OrderByClause) *SortNode {
	return &SortNode{
		relBase: relBase{cluster: child.Cluster(), rowType: child.RowType()},
		Child:   child,
		OrderBy: orderBy,
	}
}

func (n *SortNode) Kind() Kind {
	return KindSort
}

func (n *SortNode) Convention() Convention {
	return ConventionNone
}

func (n *SortNode) Children() []RelNode {
	return []RelNode{n.Child}
}

func (n *SortNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *SortNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindSort, children, 1)
	return &SortNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Child: children[0], OrderBy: n.OrderBy}
}

func (n *SortNode) String() string {
	return fmt.Sprintf("Sort: %s", OrderByList(n.OrderBy))
}

// OrderByList renders sort keys as "expr ASC, expr DESC".
func OrderByList(orderBy []OrderByClause) string {
	parts := make([]string, len(orderBy))
	for i, o := range orderBy {
		parts[i] = fmt.Sprintf("%s %s", o.Expr, o.Direction)
	}
	return strings.Join(parts, ", ")
}

// SortOrder returns the sort keys, most significant first.
func (n *SortNode) SortOrder() []OrderByClause {
	return n.OrderBy
}
