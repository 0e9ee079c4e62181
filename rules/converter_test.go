package rules

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
)

const conventionTest planner.Convention = "TEST"

// testNode wraps a node in the test convention.
type testNode struct {
	planner.RelBase
	tag      string
	children []planner.RelNode
}

func newTestNode(tag string, rowType planner.RowType, children []planner.RelNode) *testNode {
	return &testNode{RelBase: planner.NewRelBase(1, rowType), tag: tag, children: children}
}

func (n *testNode) Kind() planner.Kind {
	return "Test"
}

func (n *testNode) Convention() planner.Convention {
	return conventionTest
}

func (n *testNode) Children() []planner.RelNode {
	return n.children
}

func (n *testNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return newTestNode(n.tag, n.RowType(), children)
}

func (n *testNode) Copy(_ planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return n.WithChildren(children)
}

func (n *testNode) String() string {
	return "Test: " + n.tag
}

type testEnv struct {
	alloc *planner.PlaceholderAllocator
}

func (e testEnv) NewPlaceholder() (planner.PlaceholderID, error) {
	return e.alloc.Allocate()
}

func wrapRule(name, tag string) *Rule {
	return NewRule(name, planner.KindOneRow, planner.ConventionNone, conventionTest,
		func(_ Env, node planner.RelNode) (planner.RelNode, error) {
			return newTestNode(tag, node.RowType(), node.Children()), nil
		})
}

func TestRuleSet_Registration(t *testing.T) {
	set := NewRuleSet()
	require.NoError(t, set.Add(wrapRule("second", "b")))
	require.NoError(t, set.Add(wrapRule("first", "a")))
	require.NoError(t, set.Add(NewRule("filter", planner.KindFilter, planner.ConventionNone, conventionTest, nil)))

	err := set.Add(wrapRule("first", "c"))
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))

	err = set.Add(NewRule("loop", planner.KindOneRow, conventionTest, conventionTest, nil))
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))

	names := func(rules []ConverterRule) []string {
		var out []string
		for _, r := range rules {
			out = append(out, r.Name())
		}
		return out
	}
	assert.Equal(t, []string{"second", "first"}, names(set.For(planner.KindOneRow, planner.ConventionNone)))
	assert.Equal(t, []string{"filter"}, names(set.For(planner.KindFilter, planner.ConventionNone)))
	assert.Empty(t, set.For(planner.KindOneRow, conventionTest))
	assert.Equal(t, 3, set.Len())
	assert.Len(t, set.All(), 3)
}

func TestTryConvert_Guard(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	conv := NewConverter(NewRuleSet(), testEnv{planner.NewPlaceholderAllocator(0)}, metrics, nil)
	rule := wrapRule("wrap", "x")

	// Wrong kind.
	scan := planner.NewFilterNode(planner.NewOneRowNode(1), nil)
	out, err := conv.TryConvert(rule, scan)
	assert.NoError(t, err)
	assert.Nil(t, out)

	// Wrong convention.
	out, err = conv.TryConvert(rule, newTestNode("y", planner.OneRowType(), nil))
	assert.NoError(t, err)
	assert.Nil(t, out)

	out, err = conv.TryConvert(rule, planner.NewOneRowNode(1))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, conventionTest, out.Convention())
	assert.True(t, out.RowType().Equals(planner.OneRowType()))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RuleAttempts.WithLabelValues("wrap", OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RuleAttempts.WithLabelValues("wrap", OutcomeConverted)))
}

func TestTryConvert_Failures(t *testing.T) {
	env := testEnv{planner.NewPlaceholderAllocator(1)}
	conv := NewConverter(NewRuleSet(), env, nil, nil)
	node := planner.NewOneRowNode(1)

	declining := NewRule("decline", planner.KindOneRow, planner.ConventionNone, conventionTest,
		func(Env, planner.RelNode) (planner.RelNode, error) { return nil, nil })
	out, err := conv.TryConvert(declining, node)
	assert.NoError(t, err)
	assert.Nil(t, out)

	widening := NewRule("widen", planner.KindOneRow, planner.ConventionNone, conventionTest,
		func(_ Env, n planner.RelNode) (planner.RelNode, error) {
			return newTestNode("w", n.RowType().Concat(n.RowType()), nil), nil
		})
	_, err = conv.TryConvert(widening, node)
	assert.True(t, common.IsCode(err, common.SchemaMismatchError))
	assert.True(t, common.IsFatal(err))

	lying := NewRule("lie", planner.KindOneRow, planner.ConventionNone, "OTHER",
		func(_ Env, n planner.RelNode) (planner.RelNode, error) {
			return newTestNode("l", n.RowType(), nil), nil
		})
	_, err = conv.TryConvert(lying, node)
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))

	reserving := NewRule("reserve", planner.KindOneRow, planner.ConventionNone, conventionTest,
		func(e Env, n planner.RelNode) (planner.RelNode, error) {
			if _, err := e.NewPlaceholder(); err != nil {
				return nil, err
			}
			return newTestNode("r", n.RowType(), nil), nil
		})
	_, err = conv.TryConvert(reserving, node)
	require.NoError(t, err)
	_, err = conv.TryConvert(reserving, node)
	assert.True(t, common.IsCode(err, common.ResourceExhaustedError))
}

func TestAlternatives(t *testing.T) {
	set := NewRuleSet()
	require.NoError(t, set.Add(wrapRule("b", "second")))
	require.NoError(t, set.Add(NewRule("skip", planner.KindOneRow, planner.ConventionNone, conventionTest,
		func(Env, planner.RelNode) (planner.RelNode, error) { return nil, nil })))
	require.NoError(t, set.Add(wrapRule("a", "third")))
	require.NoError(t, set.Add(NewRule("elsewhere", planner.KindOneRow, planner.ConventionNone, "OTHER",
		func(Env, planner.RelNode) (planner.RelNode, error) { panic("must not run") })))

	conv := NewConverter(set, testEnv{planner.NewPlaceholderAllocator(0)}, nil, nil)
	alts, err := conv.Alternatives(planner.NewOneRowNode(1), conventionTest)
	require.NoError(t, err)
	require.Len(t, alts, 2)
	assert.Equal(t, "Test: second", alts[0].String())
	assert.Equal(t, "Test: third", alts[1].String())

	alts, err = conv.Alternatives(planner.NewFilterNode(planner.NewOneRowNode(1), nil), conventionTest)
	require.NoError(t, err)
	assert.Empty(t, alts)
}
