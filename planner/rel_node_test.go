package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
)

func makeTestTable() *catalog.Table {
	return &catalog.Table{
		Oid:  7,
		Name: "users",
		Columns: []catalog.Column{
			{Name: "id", Type: common.IntType, Ordinal: 0},
			{Name: "name", Type: common.StringType, Ordinal: 1},
			{Name: "age", Type: common.IntType, Ordinal: 2},
		},
	}
}

func TestRowType_Equals(t *testing.T) {
	a := NewRowType(Field{"id", common.IntType}, Field{"name", common.StringType})
	b := NewRowType(Field{"id", common.IntType}, Field{"name", common.StringType})
	renamed := NewRowType(Field{"id", common.IntType}, Field{"label", common.StringType})
	retyped := NewRowType(Field{"id", common.IntType}, Field{"name", common.IntType})

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(renamed))
	assert.False(t, a.Equals(retyped))
	assert.False(t, a.Equals(NewRowType(Field{"id", common.IntType})))
	assert.Equal(t, "(id int, name string)", a.String())
	assert.Equal(t, 4, a.Concat(b).NumFields())
}

func TestRowType_Immutable(t *testing.T) {
	fields := []Field{{"id", common.IntType}}
	rt := NewRowType(fields...)
	fields[0].Name = "changed"
	assert.Equal(t, "id", rt.Field(0).Name)

	out := rt.Fields()
	out[0].Name = "changed"
	assert.Equal(t, "id", rt.Field(0).Name)
}

func TestOneRowNode(t *testing.T) {
	n := NewOneRowNode(3)
	assert.Equal(t, KindOneRow, n.Kind())
	assert.Equal(t, ConventionNone, n.Convention())
	assert.Equal(t, ClusterID(3), n.Cluster())
	require.Equal(t, 1, n.RowType().NumFields())
	assert.Equal(t, common.IntType, n.RowType().Field(0).Type)
	assert.Empty(t, n.RowType().Field(0).Name)
	assert.Empty(t, n.Children())

	moved := n.Copy(9, nil)
	assert.Equal(t, ClusterID(9), moved.Cluster())
	assert.True(t, moved.RowType().Equals(n.RowType()))
}

func TestValuesNode_Validation(t *testing.T) {
	rt := NewRowType(Field{"id", common.IntType}, Field{"name", common.StringType})

	tests := []struct {
		name string
		rows []common.Row
		ok   bool
	}{
		{"empty", nil, true},
		{"valid", []common.Row{{common.NewIntValue(1), common.NewStringValue("a")}}, true},
		{"typed null", []common.Row{{common.NewNullInt(), common.NewNullString()}}, true},
		{"short row", []common.Row{{common.NewIntValue(1)}}, false},
		{"wrong type", []common.Row{{common.NewStringValue("1"), common.NewStringValue("a")}}, false},
		{"null of wrong type", []common.Row{{common.NewNullString(), common.NewStringValue("a")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewValuesNode(1, rt, tt.rows)
			if tt.ok {
				require.NoError(t, err)
				assert.Len(t, n.Rows(), len(tt.rows))
			} else {
				assert.True(t, common.IsCode(err, common.SchemaMismatchError))
			}
		})
	}
}

func TestTableScanNode(t *testing.T) {
	table := makeTestTable()

	full, err := NewTableScanNode(1, table, nil)
	require.NoError(t, err)
	assert.Equal(t, "(id int, name string, age int)", full.RowType().String())
	assert.Equal(t, catalog.IdentityMapper{}, full.Mapper())

	projected, err := NewTableScanNode(1, table, []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, "(age int, id int)", projected.RowType().String())
	col, ok := projected.Mapper().FieldToColumn(projected, 0)
	require.True(t, ok)
	assert.Equal(t, "age", col.Name)

	_, err = NewTableScanNode(1, table, []int{5})
	assert.True(t, common.IsCode(err, common.NoSuchObjectError))
}

func TestWithChildren(t *testing.T) {
	scan, err := NewTableScanNode(1, makeTestTable(), nil)
	require.NoError(t, err)
	pred, err := NewComparison(CmpGt, scan.RowType().Ref(0), IntLiteral(5))
	require.NoError(t, err)
	filter := NewFilterNode(scan, pred)

	other := NewOneRowNode(1)
	replaced := filter.WithChildren([]RelNode{other})
	assert.Equal(t, KindFilter, replaced.Kind())
	assert.Same(t, other, replaced.Children()[0])
	assert.Same(t, scan, filter.Children()[0], "original node must be unchanged")

	assert.Panics(t, func() { filter.WithChildren(nil) })
	assert.Panics(t, func() { scan.WithChildren([]RelNode{other}) })

	join := NewNestedLoopJoinNode(scan, other, nil)
	assert.Equal(t, 4, join.RowType().NumFields())
	assert.Panics(t, func() { join.WithChildren([]RelNode{scan}) })
}

func TestProjectionNode_Names(t *testing.T) {
	scan, err := NewTableScanNode(1, makeTestTable(), nil)
	require.NoError(t, err)
	nextAge, err := NewArithmetic(ArithAdd, scan.RowType().Ref(2), IntLiteral(1))
	require.NoError(t, err)
	exprs := []Expr{scan.RowType().Ref(1), nextAge}
	p := NewProjectionNode(scan, exprs, nil)
	assert.Equal(t, "(name string, int)", p.RowType().String())

	named := NewProjectionNode(scan, exprs, []string{"n", "next_age"})
	assert.Equal(t, "(n string, next_age int)", named.RowType().String())
}

func TestExplain(t *testing.T) {
	scan, err := NewTableScanNode(1, makeTestTable(), nil)
	require.NoError(t, err)
	plan := NewLimitNode(NewMaterializeNode(scan), 10)

	out := Explain(plan)
	assert.Contains(t, out, "Limit: 10 [NONE]")
	assert.Contains(t, out, "Materialize [NONE]")
	assert.Contains(t, out, "TableScan: users(7) [NONE]")
}

func TestDepth(t *testing.T) {
	scan, err := NewTableScanNode(1, makeTestTable(), nil)
	require.NoError(t, err)
	plan := NewNestedLoopJoinNode(NewLimitNode(NewMaterializeNode(scan), 10), NewOneRowNode(1), nil)

	tests := []struct {
		limit int
		want  int
	}{
		{10, 4},
		{4, 4},
		{3, 4},
		{1, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Depth(plan, tt.limit), "limit %d", tt.limit)
	}
	assert.Equal(t, 1, Depth(scan, 1))
}

func TestPlaceholderAllocator(t *testing.T) {
	alloc := NewPlaceholderAllocator(0)
	seen := make(map[PlaceholderID]struct{})
	for i := 0; i < 1_000_000; i++ {
		id, err := alloc.Allocate()
		require.NoError(t, err)
		require.NotEqual(t, InvalidPlaceholder, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1_000_000)

	limited := NewPlaceholderAllocator(2)
	_, err := limited.Allocate()
	require.NoError(t, err)
	_, err = limited.Allocate()
	require.NoError(t, err)
	_, err = limited.Allocate()
	assert.True(t, common.IsCode(err, common.ResourceExhaustedError))
	assert.Equal(t, uint64(2), limited.Allocated())
}

func TestCost_Less(t *testing.T) {
	cheap := Cost{Rows: 10, CPU: 10}
	expensive := Cost{Rows: 10, CPU: 5, IO: 20}
	assert.True(t, cheap.Less(expensive))
	assert.False(t, expensive.Less(cheap))
	assert.False(t, cheap.Less(cheap))
	assert.Equal(t, Cost{Rows: 20, CPU: 15, IO: 20}, cheap.Add(expensive))
}
