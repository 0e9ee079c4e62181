package metadata

import (
	"math"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
)

// Builtin query names.
const (
	// QueryRestartable is true when a node's output can be consumed again from the start
	// (rewound) after it has been partially or fully read.
	QueryRestartable = "Restartable"
	// QueryRowCount estimates the number of output rows as a float64.
	QueryRowCount = "RowCount"
	// QueryColumnsUnique takes a []int of field positions and answers whether no two output
	// rows agree on all of them.
	QueryColumnsUnique = "ColumnsUnique"
	// QueryOrdering answers the []OrderKey the output rows are known to be sorted by.
	QueryOrdering = "Ordering"
)

// DefaultTableRows is the row estimate for a table scan without statistics.
const DefaultTableRows = 1000

// FilterSelectivity is the fraction of rows a predicate is assumed to keep.
const FilterSelectivity = 0.5

// OrderKey is one component of an output ordering.
type OrderKey struct {
	Field     int
	Direction planner.SortDirection
}

// Shape groups node kinds that share relational semantics, so that one set of builtin
// handlers serves both a logical kind and its physical implementations.
type Shape int

const (
	ShapeOneRow Shape = iota
	ShapeValues
	ShapeScan
	ShapeFilter
	ShapeProjection
	ShapeLimit
	ShapeSort
	ShapeMaterialize
	ShapeJoin
)

// The accessors below let handlers read node details without knowing the concrete node
// type.

type rowSource interface {
	Rows() []common.Row
}

type mappedScan interface {
	catalog.ColumnSetProvider
	Mapper() catalog.ColumnMapper
}

type projector interface {
	Projections() []planner.Expr
}

type limiter interface {
	RowLimit() int
}

type sorter interface {
	SortOrder() []planner.OrderByClause
}

type joiner interface {
	JoinPredicate() planner.Expr
}

// RegisterBuiltins declares the builtin queries and binds their handlers to the
// logical node kinds.
func RegisterBuiltins(r *Registry) error {
	if err := r.RegisterCapability(QueryRestartable, true); err != nil {
		return err
	}
	logical := []struct {
		kind  planner.Kind
		shape Shape
	}{
		{planner.KindOneRow, ShapeOneRow},
		{planner.KindValues, ShapeValues},
		{planner.KindTableScan, ShapeScan},
		{planner.KindFilter, ShapeFilter},
		{planner.KindProjection, ShapeProjection},
		{planner.KindLimit, ShapeLimit},
		{planner.KindSort, ShapeSort},
		{planner.KindMaterialize, ShapeMaterialize},
		{planner.KindNestedLoopJoin, ShapeJoin},
	}
	for _, l := range logical {
		if err := RegisterShape(r, l.kind, l.shape); err != nil {
			return err
		}
	}
	return nil
}

// RegisterShape binds the builtin handlers for shape to kind. Restartable is left to
// default composition except for shapes that buffer their input.
func RegisterShape(r *Registry, kind planner.Kind, shape Shape) error {
	var handlers map[string]Handler
	switch shape {
	case ShapeOneRow:
		handlers = map[string]Handler{
			QueryRowCount:      constant(1.0),
			QueryColumnsUnique: constant(true),
			QueryOrdering:      constant([]OrderKey(nil)),
		}
	case ShapeValues:
		handlers = map[string]Handler{
			QueryRowCount:      valuesRowCount,
			QueryColumnsUnique: valuesColumnsUnique,
			QueryOrdering:      constant([]OrderKey(nil)),
		}
	case ShapeScan:
		handlers = map[string]Handler{
			QueryRowCount:      constant(float64(DefaultTableRows)),
			QueryColumnsUnique: scanColumnsUnique,
			QueryOrdering:      constant([]OrderKey(nil)),
		}
	case ShapeFilter:
		handlers = map[string]Handler{
			QueryRowCount:      scaledRowCount(FilterSelectivity),
			QueryColumnsUnique: forward(QueryColumnsUnique),
			QueryOrdering:      forward(QueryOrdering),
		}
	case ShapeProjection:
		handlers = map[string]Handler{
			QueryRowCount:      scaledRowCount(1),
			QueryColumnsUnique: projectionColumnsUnique,
			QueryOrdering:      projectionOrdering,
		}
	case ShapeLimit:
		handlers = map[string]Handler{
			QueryRowCount:      limitRowCount,
			QueryColumnsUnique: limitColumnsUnique,
			QueryOrdering:      forward(QueryOrdering),
		}
	case ShapeSort:
		handlers = map[string]Handler{
			QueryRestartable:   constant(true),
			QueryRowCount:      scaledRowCount(1),
			QueryColumnsUnique: forward(QueryColumnsUnique),
			QueryOrdering:      sortOrdering,
		}
	case ShapeMaterialize:
		handlers = map[string]Handler{
			QueryRestartable:   constant(true),
			QueryRowCount:      scaledRowCount(1),
			QueryColumnsUnique: forward(QueryColumnsUnique),
			QueryOrdering:      forward(QueryOrdering),
		}
	case ShapeJoin:
		handlers = map[string]Handler{
			QueryRowCount:      joinRowCount,
			QueryColumnsUnique: constant(false),
			QueryOrdering:      forward(QueryOrdering),
		}
	default:
		return common.NewError(common.InvalidConfigurationError, "unknown shape %d for %s", shape, kind)
	}
	// Register in a fixed order so that a conflict is always reported for the same query.
	for _, name := range []string{QueryRestartable, QueryRowCount, QueryColumnsUnique, QueryOrdering} {
		if h, ok := handlers[name]; ok {
			if err := r.Register(name, kind, h); err != nil {
				return err
			}
		}
	}
	return nil
}

func constant[T any](v T) Handler {
	return func(*Registry, planner.RelNode, any) (any, bool) {
		return v, true
	}
}

// forward passes query name on to the first input, for nodes that neither change nor
// reorder the fields of that input.
func forward(name string) Handler {
	return func(r *Registry, node planner.RelNode, arg any) (any, bool) {
		children := node.Children()
		if len(children) == 0 {
			return nil, false
		}
		return r.Query(children[0], name, arg)
	}
}

func inputRowCount(r *Registry, node planner.RelNode, i int) (float64, bool) {
	children := node.Children()
	if i >= len(children) {
		return 0, false
	}
	v, ok := r.Query(children[i], QueryRowCount, nil)
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

func scaledRowCount(factor float64) Handler {
	return func(r *Registry, node planner.RelNode, _ any) (any, bool) {
		n, ok := inputRowCount(r, node, 0)
		if !ok {
			return nil, false
		}
		return n * factor, true
	}
}

func valuesRowCount(_ *Registry, node planner.RelNode, _ any) (any, bool) {
	src, ok := node.(rowSource)
	if !ok {
		return nil, false
	}
	return float64(len(src.Rows())), true
}

func limitRowCount(r *Registry, node planner.RelNode, _ any) (any, bool) {
	l, ok := node.(limiter)
	if !ok {
		return nil, false
	}
	n, ok := inputRowCount(r, node, 0)
	if !ok {
		return float64(l.RowLimit()), true
	}
	return math.Min(n, float64(l.RowLimit())), true
}

func joinRowCount(r *Registry, node planner.RelNode, _ any) (any, bool) {
	left, ok := inputRowCount(r, node, 0)
	if !ok {
		return nil, false
	}
	right, ok := inputRowCount(r, node, 1)
	if !ok {
		return nil, false
	}
	if j, ok := node.(joiner); ok && j.JoinPredicate() != nil {
		return left * right * FilterSelectivity, true
	}
	return left * right, true
}

func fieldSet(node planner.RelNode, arg any) ([]int, bool) {
	fields, ok := arg.([]int)
	if !ok || len(fields) == 0 {
		return nil, false
	}
	for _, f := range fields {
		if f < 0 || f >= node.RowType().NumFields() {
			return nil, false
		}
	}
	return fields, true
}

func valuesColumnsUnique(_ *Registry, node planner.RelNode, arg any) (any, bool) {
	src, ok := node.(rowSource)
	if !ok {
		return nil, false
	}
	fields, ok := fieldSet(node, arg)
	if !ok {
		return nil, false
	}
	seen := make(map[uint64][]common.Row)
	for _, row := range src.Rows() {
		h := row.KeyHash(fields)
		for _, other := range seen[h] {
			if row.KeyEquals(other, fields) {
				return false, true
			}
		}
		seen[h] = append(seen[h], row)
	}
	return true, true
}

// scanColumnsUnique maps the requested fields back to declared columns and looks for a
// unique index whose key is covered by them.
func scanColumnsUnique(_ *Registry, node planner.RelNode, arg any) (any, bool) {
	scan, ok := node.(mappedScan)
	if !ok {
		return nil, false
	}
	fields, ok := fieldSet(node, arg)
	if !ok {
		return nil, false
	}
	indexed, ok := scan.ColumnSet().(interface{ UniqueIndexes() []catalog.Index })
	if !ok {
		return false, true
	}
	mapper := scan.Mapper()
	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		col, ok := mapper.FieldToColumn(scan, f)
		if !ok {
			return false, true
		}
		names[col.Name] = struct{}{}
	}
	for _, idx := range indexed.UniqueIndexes() {
		covered := len(idx.KeySchema) > 0
		for _, key := range idx.KeySchema {
			if _, ok := names[key]; !ok {
				covered = false
				break
			}
		}
		if covered {
			return true, true
		}
	}
	return false, true
}

// inputFields translates output fields of a projection into the input fields they copy.
// It fails if any of them is computed.
func inputFields(p projector, fields []int) ([]int, bool) {
	exprs := p.Projections()
	out := make([]int, len(fields))
	for i, f := range fields {
		idx, ok := planner.ColumnIndex(exprs[f])
		if !ok {
			return nil, false
		}
		out[i] = idx
	}
	return out, true
}

func projectionColumnsUnique(r *Registry, node planner.RelNode, arg any) (any, bool) {
	p, ok := node.(projector)
	if !ok {
		return nil, false
	}
	fields, ok := fieldSet(node, arg)
	if !ok {
		return nil, false
	}
	in, ok := inputFields(p, fields)
	if !ok {
		return false, true
	}
	return r.Query(node.Children()[0], QueryColumnsUnique, in)
}

func limitColumnsUnique(r *Registry, node planner.RelNode, arg any) (any, bool) {
	if l, ok := node.(limiter); ok && l.RowLimit() <= 1 {
		if _, ok := fieldSet(node, arg); ok {
			return true, true
		}
	}
	return r.Query(node.Children()[0], QueryColumnsUnique, arg)
}

func sortOrdering(_ *Registry, node planner.RelNode, _ any) (any, bool) {
	s, ok := node.(sorter)
	if !ok {
		return nil, false
	}
	var keys []OrderKey
	for _, clause := range s.SortOrder() {
		idx, ok := planner.ColumnIndex(clause.Expr)
		if !ok {
			break
		}
		keys = append(keys, OrderKey{Field: idx, Direction: clause.Direction})
	}
	return keys, true
}

// projectionOrdering keeps the longest prefix of the input ordering whose fields survive
// the projection.
func projectionOrdering(r *Registry, node planner.RelNode, _ any) (any, bool) {
	p, ok := node.(projector)
	if !ok {
		return nil, false
	}
	v, ok := r.Query(node.Children()[0], QueryOrdering, nil)
	if !ok {
		return nil, false
	}
	inputKeys, _ := v.([]OrderKey)
	var keys []OrderKey
	for _, key := range inputKeys {
		out := -1
		for i, e := range p.Projections() {
			if idx, ok := planner.ColumnIndex(e); ok && idx == key.Field {
				out = i
				break
			}
		}
		if out < 0 {
			break
		}
		keys = append(keys, OrderKey{Field: out, Direction: key.Direction})
	}
	return keys, true
}
