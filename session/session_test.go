package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/execution"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/pull"
	"mit.edu/dsg/goplan/rules"
	"mit.edu/dsg/goplan/streamdef"
)

type fixture struct {
	cat    *catalog.Catalog
	users  *catalog.Table
	tables *execution.TableManager
}

func newFixture(t *testing.T) *fixture {
	provider := &catalog.MemCatalogManager{}
	cat, err := catalog.NewCatalog(provider)
	require.NoError(t, err)
	users, err := cat.AddTable("users", []catalog.Column{
		{Name: "id", Type: common.IntType},
		{Name: "name", Type: common.StringType},
		{Name: "age", Type: common.IntType},
	}, provider)
	require.NoError(t, err)
	_, err = cat.AddIndex("users_pk", "users", "btree", true, []string{"id"}, provider)
	require.NoError(t, err)

	tables := execution.NewTableManager(cat)
	people := []struct {
		id   int64
		name string
		age  int64
	}{{1, "ann", 25}, {2, "bob", 35}, {3, "cat", 45}, {4, "dan", 31}, {5, "eve", 20}}
	for _, p := range people {
		require.NoError(t, tables.Insert(users.Oid,
			common.Row{common.NewIntValue(p.id), common.NewStringValue(p.name), common.NewIntValue(p.age)}))
	}
	return &fixture{cat: cat, users: users, tables: tables}
}

func newSession(t *testing.T, f *fixture, cfg Config, opts ...Option) *Session {
	s, err := New(f.cat, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func column(node planner.RelNode, i int) planner.Expr {
	return node.RowType().Ref(i)
}

func compare(t *testing.T, op planner.CompareOp, left, right planner.Expr) planner.Expr {
	e, err := planner.NewComparison(op, left, right)
	require.NoError(t, err)
	return e
}

// olderThan30 builds: SELECT name, id FROM users WHERE age > 30 ORDER BY id DESC LIMIT 2.
func olderThan30(t *testing.T, f *fixture) planner.RelNode {
	scan, err := planner.NewTableScanNode(1, f.users, nil)
	require.NoError(t, err)
	filter := planner.NewFilterNode(scan, compare(t, planner.CmpGt, column(scan, 2), planner.IntLiteral(30)))
	sorted := planner.NewSortNode(filter, []planner.OrderByClause{{Expr: column(filter, 0), Direction: planner.SortOrderDescending}})
	proj := planner.NewProjectionNode(sorted, []planner.Expr{column(sorted, 1), column(sorted, 0)}, nil)
	return planner.NewLimitNode(proj, 2)
}

func runStatement(t *testing.T, st *Statement, tables execution.TableSource) []common.Row {
	exec, err := st.Open(execution.NewExecutorContext(tables))
	require.NoError(t, err)
	rows, err := execution.Drain(exec)
	require.NoError(t, err)
	require.NoError(t, exec.Close())
	return rows
}

func TestSession_EndToEnd(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())

	logical := olderThan30(t, f)
	physical, err := s.Convert(logical, pull.Convention)
	require.NoError(t, err)
	assert.True(t, physical.RowType().Equals(logical.RowType()))
	assert.Equal(t, pull.KindLimit, physical.Kind())

	st, err := s.Compile(physical)
	require.NoError(t, err)
	assert.Equal(t, 1, st.NumResources())
	assert.True(t, st.Restartable())

	rows := runStatement(t, st, f.tables)
	require.Len(t, rows, 2)
	assert.Equal(t, "dan", rows[0].GetValue(0).StringValue())
	assert.Equal(t, int64(4), rows[0].GetValue(1).IntValue())
	assert.Equal(t, "cat", rows[1].GetValue(0).StringValue())
	assert.Equal(t, int64(3), rows[1].GetValue(1).IntValue())
}

func TestSession_ZeroRowValues(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	values, err := planner.NewValuesNode(1, planner.NewRowType(planner.Field{Name: "x", Type: common.IntType}), nil)
	require.NoError(t, err)

	st, err := s.Plan(values)
	require.NoError(t, err)
	assert.Equal(t, streamdef.KindValues, st.Def().Kind)
	assert.Equal(t, "0", st.Def().Params[streamdef.ParamRowCount])
	assert.Empty(t, st.Def().Rows)
	assert.True(t, st.Restartable())
	assert.Empty(t, runStatement(t, st, f.tables))
}

func TestSession_OneRow(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	one := planner.NewOneRowNode(1)
	sum, err := planner.NewArithmetic(planner.ArithAdd, planner.IntLiteral(40), planner.IntLiteral(2))
	require.NoError(t, err)
	proj := planner.NewProjectionNode(one, []planner.Expr{sum}, []string{"answer"})

	st, err := s.Plan(proj)
	require.NoError(t, err)
	rows := runStatement(t, st, f.tables)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].GetValue(0).IntValue())
	assert.Equal(t, 0, st.NumResources())
}

func TestSession_JoinWithMaterializedInput(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())

	left, err := planner.NewTableScanNode(1, f.users, []int{0, 1})
	require.NoError(t, err)
	right, err := planner.NewTableScanNode(1, f.users, []int{0, 2})
	require.NoError(t, err)
	cross := planner.NewNestedLoopJoinNode(left, planner.NewMaterializeNode(right), nil)
	join := planner.NewNestedLoopJoinNode(cross.Left, cross.Right,
		compare(t, planner.CmpEq, column(cross, 0), column(cross, 2)))

	st, err := s.Plan(join)
	require.NoError(t, err)
	assert.Equal(t, 3, st.NumResources())

	ctx := execution.NewExecutorContext(f.tables)
	exec, err := st.Open(ctx)
	require.NoError(t, err)
	rows, err := execution.Drain(exec)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, row := range rows {
		assert.Equal(t, row.GetValue(0).IntValue(), row.GetValue(2).IntValue())
	}

	// Resources are numbered in post-order: left scan, right scan, then its buffer.
	assert.Equal(t, 1, ctx.Opens(1), "the materialized scan runs once")
	assert.Equal(t, 5, ctx.BufferedRows(2))
}

func TestSession_ReopenAfterPartialRead(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	scan, err := planner.NewTableScanNode(1, f.users, []int{0})
	require.NoError(t, err)
	st, err := s.Plan(planner.NewMaterializeNode(scan))
	require.NoError(t, err)
	require.True(t, st.Restartable())

	ctx := execution.NewExecutorContext(f.tables)
	exec, err := st.Open(ctx)
	require.NoError(t, err)
	require.True(t, exec.Next())
	require.NoError(t, exec.Close())

	exec, err = st.Open(ctx)
	require.NoError(t, err)
	rows, err := execution.Drain(exec)
	require.NoError(t, err)
	require.NoError(t, exec.Close())
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, int64(i+1), row.GetValue(0).IntValue())
	}
	assert.Equal(t, 5, ctx.BufferedRows(1))
}

func TestSession_ConcurrentOpen(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	st, err := s.Plan(olderThan30(t, f))
	require.NoError(t, err)
	want := runStatement(t, st, f.tables)

	var g errgroup.Group
	results := make([][]common.Row, 16)
	for i := range results {
		i := i
		g.Go(func() error {
			exec, err := st.Open(execution.NewExecutorContext(f.tables))
			if err != nil {
				return err
			}
			defer exec.Close()
			rows, err := execution.Drain(exec)
			results[i] = rows
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, rows := range results {
		assert.Equal(t, want, rows)
	}
}

func TestSession_EncodeDecode(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	st, err := s.Plan(olderThan30(t, f))
	require.NoError(t, err)

	data, err := st.Encode()
	require.NoError(t, err)
	decoded, err := DecodeStatement(data)
	require.NoError(t, err)
	assert.Equal(t, st.NumResources(), decoded.NumResources())
	assert.Equal(t, st.String(), decoded.String())
	assert.Equal(t, runStatement(t, st, f.tables), runStatement(t, decoded, f.tables))
}

const kindOrphan planner.Kind = "Orphan"

// orphan is a leaf no rule knows how to convert.
type orphan struct {
	planner.RelBase
}

func (n *orphan) Kind() planner.Kind {
	return kindOrphan
}

func (n *orphan) Convention() planner.Convention {
	return planner.ConventionNone
}

func (n *orphan) Children() []planner.RelNode {
	return nil
}

func (n *orphan) WithChildren([]planner.RelNode) planner.RelNode {
	return n
}

func (n *orphan) Copy(planner.ClusterID, []planner.RelNode) planner.RelNode {
	return n
}

func (n *orphan) String() string {
	return "Orphan"
}

func TestSession_NoPlan(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	leaf := &orphan{RelBase: planner.NewRelBase(1, planner.OneRowType())}

	_, err := s.Convert(planner.NewLimitNode(leaf, 1), pull.Convention)
	assert.True(t, common.IsCode(err, common.NoPlanError))
	assert.False(t, common.IsFatal(err))
}

func TestSession_MaxTreeDepth(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.MaxTreeDepth = 3
	s := newSession(t, f, cfg)

	var node planner.RelNode = planner.NewOneRowNode(1)
	for i := 0; i < 2; i++ {
		node = planner.NewLimitNode(node, 10)
	}
	_, err := s.Convert(node, pull.Convention)
	require.NoError(t, err)

	_, err = s.Convert(planner.NewLimitNode(node, 10), pull.Convention)
	assert.True(t, common.IsCode(err, common.ResourceExhaustedError))
}

func TestSession_PlaceholderLimit(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.MaxPlaceholders = 1
	s := newSession(t, f, cfg)

	scan, err := planner.NewTableScanNode(1, f.users, nil)
	require.NoError(t, err)
	_, err = s.Convert(scan, pull.Convention)
	require.NoError(t, err)
	_, err = s.Convert(scan, pull.Convention)
	assert.True(t, common.IsCode(err, common.ResourceExhaustedError))
}

const kindFixedCostFilter planner.Kind = "FixedCostFilter"

// fixedCostFilter is a pull filter with a configurable cost.
type fixedCostFilter struct {
	planner.RelBase
	child planner.RelNode
	rule  string
	cost  planner.Cost
}

func (n *fixedCostFilter) Kind() planner.Kind {
	return kindFixedCostFilter
}

func (n *fixedCostFilter) Convention() planner.Convention {
	return pull.Convention
}

func (n *fixedCostFilter) Children() []planner.RelNode {
	return []planner.RelNode{n.child}
}

func (n *fixedCostFilter) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *fixedCostFilter) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	planner.CheckArity(kindFixedCostFilter, children, 1)
	return &fixedCostFilter{RelBase: n.WithCluster(cluster), child: children[0], rule: n.rule, cost: n.cost}
}

func (n *fixedCostFilter) String() string {
	return "FixedCostFilter"
}

func (n *fixedCostFilter) SelfCost(*metadata.Registry) planner.Cost {
	return n.cost
}

func fixedCostRule(name string, cost planner.Cost) rules.ConverterRule {
	return rules.NewRule(name, planner.KindFilter, planner.ConventionNone, pull.Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			return &fixedCostFilter{
				RelBase: planner.NewRelBase(node.Cluster(), node.RowType()),
				child:   node.Children()[0],
				rule:    name,
				cost:    cost,
			}, nil
		})
}

func TestSession_CheapestAlternative(t *testing.T) {
	f := newFixture(t)
	scan, err := planner.NewTableScanNode(1, f.users, nil)
	require.NoError(t, err)
	filter := planner.NewFilterNode(scan, compare(t, planner.CmpGt, column(scan, 2), planner.IntLiteral(30)))

	s := newSession(t, f, DefaultConfig())
	require.NoError(t, s.AddRule(fixedCostRule("Expensive", planner.Cost{Rows: 1, CPU: 1e12})))
	out, err := s.Convert(filter, pull.Convention)
	require.NoError(t, err)
	assert.Equal(t, pull.KindFilter, out.Kind())

	s = newSession(t, f, DefaultConfig())
	require.NoError(t, s.AddRule(fixedCostRule("Free", planner.Cost{})))
	out, err = s.Convert(filter, pull.Convention)
	require.NoError(t, err)
	require.Equal(t, kindFixedCostFilter, out.Kind())
	assert.Equal(t, pull.KindTableScan, out.Children()[0].Kind(), "inputs are converted first")

	// Equal costs go to the earlier registration.
	s = newSession(t, f, DefaultConfig())
	require.NoError(t, s.AddRule(fixedCostRule("SameA", planner.Cost{})))
	require.NoError(t, s.AddRule(fixedCostRule("SameB", planner.Cost{})))
	out, err = s.Convert(filter, pull.Convention)
	require.NoError(t, err)
	assert.Equal(t, "SameA", out.(*fixedCostFilter).rule)
}

func TestSession_CompileRejectsLogicalPlan(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, DefaultConfig())
	_, err := s.Compile(planner.NewOneRowNode(1))
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))
}

func TestSession_Metrics(t *testing.T) {
	f := newFixture(t)
	m := rules.NewMetrics(prometheus.NewRegistry())
	s := newSession(t, f, DefaultConfig(), WithMetrics(m))

	_, err := s.Plan(olderThan30(t, f))
	require.NoError(t, err)
	for _, name := range []string{"LogicalTableScanToPull", "LogicalFilterToPull", "LogicalSortToPull", "LogicalProjectionToPull", "LogicalLimitToPull"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleAttempts.WithLabelValues(name, rules.OutcomeConverted)), name)
	}
}

func TestSession_UseAfterClose(t *testing.T) {
	f := newFixture(t)
	s, err := New(f.cat, DefaultConfig())
	require.NoError(t, err)
	st, err := s.Plan(planner.NewOneRowNode(1))
	require.NoError(t, err)
	s.Close()
	s.Close()

	assert.Panics(t, func() { _, _ = s.Convert(planner.NewOneRowNode(1), pull.Convention) })
	assert.Len(t, runStatement(t, st, f.tables), 1, "statements outlive their session")
}

func TestSession_Isolated(t *testing.T) {
	f := newFixture(t)
	a := newSession(t, f, DefaultConfig())
	b := newSession(t, f, DefaultConfig())
	assert.NotEqual(t, a.ID(), b.ID())

	require.NoError(t, a.AddRule(fixedCostRule("Free", planner.Cost{})))
	require.NoError(t, b.AddRule(fixedCostRule("Free", planner.Cost{})), "rules are registered per session")
	assert.NoError(t, a.Registry().Register("Custom", kindOrphan, func(*metadata.Registry, planner.RelNode, any) (any, bool) {
		return 1, true
	}))
	_, ok := b.Registry().Query(&orphan{RelBase: planner.NewRelBase(1, planner.OneRowType())}, "Custom", nil)
	assert.False(t, ok)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "goplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tree_depth: 12\nlog_level: debug\ncache_metadata: false\n"), 0o644))
	t.Setenv("GOPLAN_MAX_PLACEHOLDERS", "99")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{MaxTreeDepth: 12, MaxPlaceholders: 99, LogLevel: "debug", CacheMetadata: false}, cfg)

	t.Setenv("GOPLAN_MAX_TREE_DEPTH", "0")
	_, err = LoadConfig(path)
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNew_InvalidLogLevel(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.LogLevel = "chatty"
	_, err := New(f.cat, cfg)
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))
}
