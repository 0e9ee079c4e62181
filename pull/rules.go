package pull

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/rules"
)

// Converter rules from the logical convention into the pull convention.
var (
	LogicalOneRowToPull = rules.NewRule("LogicalOneRowToPull", planner.KindOneRow, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.OneRowNode)
			if !ok {
				return nil, nil
			}
			return NewOneRowNode(n.Cluster()), nil
		})

	// LogicalValuesToPull declines rows holding uninitialized values, which cannot be
	// represented in a stream description.
	LogicalValuesToPull = rules.NewRule("LogicalValuesToPull", planner.KindValues, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.ValuesNode)
			if !ok {
				return nil, nil
			}
			for _, row := range n.Rows() {
				for _, v := range row {
					if v.IsNil() {
						return nil, nil
					}
				}
			}
			return NewValuesNode(n.Cluster(), n.RowType(), n.Rows()), nil
		})

	LogicalTableScanToPull = rules.NewRule("LogicalTableScanToPull", planner.KindTableScan, planner.ConventionNone, Convention,
		func(env rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.TableScanNode)
			if !ok {
				return nil, nil
			}
			cursor, err := env.NewPlaceholder()
			if err != nil {
				return nil, err
			}
			return NewTableScanNode(n.Cluster(), n.RowType(), n.Table, n.Columns(), cursor), nil
		})

	LogicalFilterToPull = rules.NewRule("LogicalFilterToPull", planner.KindFilter, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.FilterNode)
			if !ok || n.Predicate == nil {
				return nil, nil
			}
			return NewFilterNode(n.Child, n.Predicate), nil
		})

	LogicalProjectionToPull = rules.NewRule("LogicalProjectionToPull", planner.KindProjection, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.ProjectionNode)
			if !ok {
				return nil, nil
			}
			return NewProjectionNode(n.Child, n.RowType(), n.Expressions), nil
		})

	LogicalLimitToPull = rules.NewRule("LogicalLimitToPull", planner.KindLimit, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.LimitNode)
			if !ok {
				return nil, nil
			}
			return NewLimitNode(n.Child, n.Limit), nil
		})

	// LogicalSortToPull declines sort keys that are not field references: the pull
	// engine sorts by input field.
	LogicalSortToPull = rules.NewRule("LogicalSortToPull", planner.KindSort, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.SortNode)
			if !ok {
				return nil, nil
			}
			for _, o := range n.OrderBy {
				if _, ok := planner.ColumnIndex(o.Expr); !ok {
					return nil, nil
				}
			}
			return NewSortNode(n.Child, n.OrderBy), nil
		})

	LogicalMaterializeToPull = rules.NewRule("LogicalMaterializeToPull", planner.KindMaterialize, planner.ConventionNone, Convention,
		func(env rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.MaterializeNode)
			if !ok {
				return nil, nil
			}
			buffer, err := env.NewPlaceholder()
			if err != nil {
				return nil, err
			}
			return NewMaterializeNode(n.Child, buffer), nil
		})

	LogicalNestedLoopJoinToPull = rules.NewRule("LogicalNestedLoopJoinToPull", planner.KindNestedLoopJoin, planner.ConventionNone, Convention,
		func(_ rules.Env, node planner.RelNode) (planner.RelNode, error) {
			n, ok := node.(*planner.NestedLoopJoinNode)
			if !ok {
				return nil, nil
			}
			return NewNestedLoopJoinNode(n.Left, n.Right, n.Predicate), nil
		})
)

// Rules returns the converter rules of the pull convention in registration order.
func Rules() []rules.ConverterRule {
	return []rules.ConverterRule{
		LogicalOneRowToPull,
		LogicalValuesToPull,
		LogicalTableScanToPull,
		LogicalFilterToPull,
		LogicalProjectionToPull,
		LogicalLimitToPull,
		LogicalSortToPull,
		LogicalMaterializeToPull,
		LogicalNestedLoopJoinToPull,
	}
}

// RegisterRules adds the pull converter rules to set.
func RegisterRules(set *rules.RuleSet, logger log.Logger) error {
	for _, r := range Rules() {
		if err := set.Add(r); err != nil {
			return err
		}
	}
	if logger != nil {
		level.Debug(logger).Log("msg", "registered converter rules", "convention", Convention, "count", len(Rules()))
	}
	return nil
}

// RegisterMetadata binds the builtin metadata handlers to the pull node kinds.
func RegisterMetadata(reg *metadata.Registry) error {
	kinds := []struct {
		kind  planner.Kind
		shape metadata.Shape
	}{
		{KindOneRow, metadata.ShapeOneRow},
		{KindValues, metadata.ShapeValues},
		{KindTableScan, metadata.ShapeScan},
		{KindFilter, metadata.ShapeFilter},
		{KindProjection, metadata.ShapeProjection},
		{KindLimit, metadata.ShapeLimit},
		{KindSort, metadata.ShapeSort},
		{KindMaterialize, metadata.ShapeMaterialize},
		{KindNestedLoopJoin, metadata.ShapeJoin},
	}
	for _, k := range kinds {
		if err := metadata.RegisterShape(reg, k.kind, k.shape); err != nil {
			return err
		}
	}
	return nil
}
