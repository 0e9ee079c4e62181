package planner

import (
	"fmt"
	"strings"

	"mit.edu/dsg/goplan/common"
)

// Convention names the implementation strategy of a relational expression.
// Two conventions are equal iff their names are equal.
type Convention string

// ConventionNone is the convention of logical expressions that have no execution
// strategy yet.
const ConventionNone Convention = "NONE"

func (c Convention) String() string {
	return string(c)
}

// Kind names the concrete kind of a node. Kinds do not form a hierarchy: a handler or
// rule bound to one kind never applies to another.
type Kind string

// Logical node kinds known to the planner.
const (
	KindOneRow         Kind = "OneRow"
	KindValues         Kind = "Values"
	KindTableScan      Kind = "TableScan"
	KindFilter         Kind = "Filter"
	KindProjection     Kind = "Projection"
	KindLimit          Kind = "Limit"
	KindSort           Kind = "Sort"
	KindMaterialize    Kind = "Materialize"
	KindNestedLoopJoin Kind = "NestedLoopJoin"
)

// ClusterID identifies the planning context a node was built in. It is a lookup key
// into the owning session, not a reference to it.
type ClusterID uint64

// Field is one named, typed column of a row type. Name may be empty.
type Field struct {
	Name string
	Type common.Type
}

// RowType is the ordered sequence of fields produced by a node. It is immutable.
type RowType struct {
	fields []Field
}

// NewRowType builds a row type from the given fields. The slice is copied.
func NewRowType(fields ...Field) RowType {
	return RowType{fields: append([]Field(nil), fields...)}
}

// NumFields returns the number of fields.
func (r RowType) NumFields() int {
	return len(r.fields)
}

// Field returns the i-th field.
func (r RowType) Field(i int) Field {
	return r.fields[i]
}

// Fields returns a copy of the fields.
func (r RowType) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Types returns the field types in order.
func (r RowType) Types() []common.Type {
	out := make([]common.Type, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Type
	}
	return out
}

// Equals compares names and types positionally.
func (r RowType) Equals(other RowType) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

// Concat returns the row type of r followed by other.
func (r RowType) Concat(other RowType) RowType {
	out := make([]Field, 0, len(r.fields)+len(other.fields))
	out = append(out, r.fields...)
	return RowType{fields: append(out, other.fields...)}
}

func (r RowType) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		if f.Name == "" {
			parts[i] = f.Type.String()
		} else {
			parts[i] = fmt.Sprintf("%s %s", f.Name, f.Type)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RelNode is one step of a query plan. Nodes are immutable: transformations build new
// nodes instead of changing existing ones, and a node exclusively owns its children.
type RelNode interface {
	// Kind returns the concrete kind of the node.
	Kind() Kind

	// Convention returns the calling convention the node is implemented in.
	Convention() Convention

	// RowType returns the schema of the rows produced by this node.
	RowType() RowType

	// Children returns the ordered inputs of the node.
	Children() []RelNode

	// WithChildren returns a copy of the node with the given inputs, in the same cluster.
	WithChildren(children []RelNode) RelNode

	// Cluster returns the planning context the node belongs to.
	Cluster() ClusterID

	// Copy returns a copy of the node bound to cluster, with the given inputs.
	Copy(cluster ClusterID, children []RelNode) RelNode

	// String returns a one-line description of the node (without its inputs).
	String() string
}

// relBase carries the fields shared by every node.
type relBase struct {
	cluster ClusterID
	rowType RowType
}

func (b relBase) Cluster() ClusterID {
	return b.cluster
}

func (b relBase) RowType() RowType {
	return b.rowType
}

// RelBase is the exported form of relBase for node kinds defined outside this package.
type RelBase struct {
	relBase
}

// NewRelBase builds the shared part of a node.
func NewRelBase(cluster ClusterID, rowType RowType) RelBase {
	return RelBase{relBase{cluster: cluster, rowType: rowType}}
}

// WithCluster returns a copy of b bound to another cluster.
func (b RelBase) WithCluster(cluster ClusterID) RelBase {
	return NewRelBase(cluster, b.rowType)
}

// CheckArity panics when a node of the given kind receives the wrong number of inputs.
func CheckArity(kind Kind, children []RelNode, want int) {
	common.Assert(len(children) == want, "%s expects %d inputs, got %d", kind, want, len(children))
}

// Depth returns the height of the tree rooted at node (a leaf has depth 1). The walk
// gives up below limit, so for deeper trees the result is limit+1.
func Depth(node RelNode, limit int) int {
	return depth(node, 1, limit)
}

func depth(node RelNode, at, limit int) int {
	if at > limit {
		return at
	}
	deepest := at
	for _, child := range node.Children() {
		if d := depth(child, at+1, limit); d > deepest {
			deepest = d
			if deepest > limit {
				break
			}
		}
	}
	return deepest
}
