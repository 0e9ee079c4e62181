package execution

import (
	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// Build turns a compiled stream description into a tree of executors. Every call
// returns a fresh tree, so concurrent executions of one description each Build their
// own.
func Build(def *streamdef.StreamDef) (Executor, error) {
	if def == nil {
		return nil, errors.New("cannot build a nil stream definition")
	}
	inputs := make([]Executor, len(def.Inputs))
	for i, in := range def.Inputs {
		e, err := Build(in)
		if err != nil {
			return nil, err
		}
		inputs[i] = e
	}
	e, err := build(def, inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s", def.Kind)
	}
	return e, nil
}

func build(def *streamdef.StreamDef, inputs []Executor) (Executor, error) {
	switch def.Kind {
	case streamdef.KindOneRow, streamdef.KindValues:
		if err := arity(def, 0); err != nil {
			return nil, err
		}
		for i, row := range def.Rows {
			if len(row) != len(def.Fields) {
				return nil, common.NewError(common.SchemaMismatchError,
					"row %d has %d values, want %d", i, len(row), len(def.Fields))
			}
		}
		return NewValuesExecutor(def), nil

	case streamdef.KindTableScan:
		if err := arity(def, 0); err != nil {
			return nil, err
		}
		oid, err := def.IntParam(streamdef.ParamTableOid)
		if err != nil {
			return nil, err
		}
		columns, err := def.IntListParam(streamdef.ParamColumns)
		if err != nil {
			return nil, err
		}
		if len(columns) != len(def.Fields) {
			return nil, common.NewError(common.SchemaMismatchError,
				"scan lists %d columns for %d fields", len(columns), len(def.Fields))
		}
		resource, err := def.IntParam(streamdef.ParamResourceID)
		if err != nil {
			return nil, err
		}
		return NewSeqScanExecutor(def, common.ObjectID(oid), columns, int(resource)), nil

	case streamdef.KindFilter:
		if err := arity(def, 1); err != nil {
			return nil, err
		}
		if len(def.Exprs) != 1 {
			return nil, errors.Newf("filter needs exactly one predicate, got %d", len(def.Exprs))
		}
		pred, err := planner.ExprFromDef(def.Exprs[0], def.Inputs[0].FieldTypes())
		if err != nil {
			return nil, err
		}
		return NewFilter(def, pred, inputs[0]), nil

	case streamdef.KindProjection:
		if err := arity(def, 1); err != nil {
			return nil, err
		}
		if len(def.Exprs) != len(def.Fields) {
			return nil, common.NewError(common.SchemaMismatchError,
				"projection has %d expressions for %d fields", len(def.Exprs), len(def.Fields))
		}
		exprs := make([]planner.Expr, len(def.Exprs))
		for i, d := range def.Exprs {
			e, err := planner.ExprFromDef(d, def.Inputs[0].FieldTypes())
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		return NewProjectionExecutor(def, exprs, inputs[0]), nil

	case streamdef.KindLimit:
		if err := arity(def, 1); err != nil {
			return nil, err
		}
		limit, err := def.IntParam(streamdef.ParamLimit)
		if err != nil {
			return nil, err
		}
		if limit < 0 {
			return nil, errors.Newf("negative limit %d", limit)
		}
		return NewLimitExecutor(def, int(limit), inputs[0]), nil

	case streamdef.KindSort:
		if err := arity(def, 1); err != nil {
			return nil, err
		}
		keys, err := sortKeys(def)
		if err != nil {
			return nil, err
		}
		return NewSortExecutor(def, keys, inputs[0]), nil

	case streamdef.KindMaterialize:
		if err := arity(def, 1); err != nil {
			return nil, err
		}
		resource, err := def.IntParam(streamdef.ParamResourceID)
		if err != nil {
			return nil, err
		}
		return NewMaterializeExecutor(def, int(resource), inputs[0]), nil

	case streamdef.KindNestedLoopJoin:
		if err := arity(def, 2); err != nil {
			return nil, err
		}
		var pred planner.Expr
		switch len(def.Exprs) {
		case 0:
		case 1:
			types := append(def.Inputs[0].FieldTypes(), def.Inputs[1].FieldTypes()...)
			p, err := planner.ExprFromDef(def.Exprs[0], types)
			if err != nil {
				return nil, err
			}
			pred = p
		default:
			return nil, errors.Newf("join takes at most one predicate, got %d", len(def.Exprs))
		}
		return NewBlockNestedLoopJoinExecutor(def, pred, inputs[0], inputs[1]), nil
	}
	return nil, errors.Newf("unknown operator kind %q", def.Kind)
}

func arity(def *streamdef.StreamDef, want int) error {
	if len(def.Inputs) != want {
		return errors.Newf("%s takes %d inputs, got %d", def.Kind, want, len(def.Inputs))
	}
	return nil
}

func sortKeys(def *streamdef.StreamDef) ([]SortKey, error) {
	fields, err := def.IntListParam(streamdef.ParamColumns)
	if err != nil {
		return nil, err
	}
	directions, err := def.IntListParam(streamdef.ParamDirections)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(directions) {
		return nil, errors.Newf("sort has %d fields but %d directions", len(fields), len(directions))
	}
	width := len(def.Inputs[0].Fields)
	keys := make([]SortKey, len(fields))
	for i, f := range fields {
		if f < 0 || f >= width {
			return nil, common.NewError(common.SchemaMismatchError,
				"sort field %d out of range for %d input fields", f, width)
		}
		d := planner.SortDirection(directions[i])
		if d != planner.SortOrderAscending && d != planner.SortOrderDescending {
			return nil, errors.Newf("unknown sort direction %d", directions[i])
		}
		keys[i] = SortKey{Field: f, Direction: d}
	}
	return keys, nil
}
