package planner

import (
	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// Expr is a scalar expression evaluated once per row. Expressions are immutable and
// their operand types are checked when they are built, so Eval never sees a value of
// an unexpected type. Boolean results are IntType values: 1 is true, 0 is false and
// NULL is unknown.
type Expr interface {
	// Eval evaluates the expression against one input row.
	Eval(row common.Row) common.Value

	// OutputType returns the type of value this expression produces.
	OutputType() common.Type

	// Describe returns the serializable form of the expression.
	Describe() streamdef.ExprDef

	String() string
}

// IsTrue reports whether v is a non-NULL, non-zero boolean. Filters keep a row only
// when their predicate is true; false and unknown both drop it.
func IsTrue(v common.Value) bool {
	return v.Type() == common.IntType && !v.IsNull() && v.IntValue() != 0
}

func isFalse(v common.Value) bool {
	return v.Type() == common.IntType && !v.IsNull() && v.IntValue() == 0
}

func boolValue(b bool) common.Value {
	if b {
		return common.NewIntValue(1)
	}
	return common.NewIntValue(0)
}

// ColumnIndex returns the input field an expression reads, if it is a bare field
// reference.
func ColumnIndex(e Expr) (int, bool) {
	if ref, ok := e.(*ColumnRef); ok {
		return ref.field, true
	}
	return 0, false
}

// requireTypes checks that every operand of op produces want.
func requireTypes(op string, want common.Type, operands ...Expr) error {
	for _, e := range operands {
		if e.OutputType() != want {
			return common.NewError(common.SchemaMismatchError,
				"%s expects %s operands, %s is %s", op, want, e, e.OutputType())
		}
	}
	return nil
}

type exprDecoder func(def streamdef.ExprDef, args []Expr) (Expr, error)

// exprDecoders rebuilds the operators that have inputs. Field references and literals
// are leaves and are handled by ExprFromDef itself.
var exprDecoders = map[string]struct {
	arity  int
	decode exprDecoder
}{
	streamdef.ExprCompare:   {2, decodeComparison},
	streamdef.ExprLogic:     {2, decodeLogic},
	streamdef.ExprNot:       {1, decodeNot},
	streamdef.ExprNullCheck: {1, decodeNullTest},
	streamdef.ExprArith:     {2, decodeArithmetic},
	streamdef.ExprConcat:    {2, decodeConcat},
	streamdef.ExprLike:      {2, decodeLike},
}

// ExprFromDef rebuilds an expression from its serialized form. inputTypes is the row
// type the expression is evaluated against. Serialized plans are not trusted: field
// references, operand types and the recorded result types are all checked, and a
// mismatch is a SchemaMismatchError.
func ExprFromDef(def streamdef.ExprDef, inputTypes []common.Type) (Expr, error) {
	var e Expr
	switch def.Op {
	case streamdef.ExprColumn:
		if def.Field < 0 || def.Field >= len(inputTypes) {
			return nil, common.NewError(common.SchemaMismatchError,
				"field reference %d out of range for %d input fields", def.Field, len(inputTypes))
		}
		e = NewColumnRef(def.Field, inputTypes[def.Field], def.Name)
	case streamdef.ExprConst:
		if def.Value == nil {
			return nil, errors.New("constant expression without value")
		}
		e = NewLiteral(*def.Value)
	default:
		d, ok := exprDecoders[def.Op]
		if !ok {
			return nil, errors.Newf("unknown expression operator %q", def.Op)
		}
		if len(def.Args) != d.arity {
			return nil, errors.Newf("expression %q expects %d arguments, got %d", def.Op, d.arity, len(def.Args))
		}
		args := make([]Expr, len(def.Args))
		for i, a := range def.Args {
			arg, err := ExprFromDef(a, inputTypes)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		var err error
		if e, err = d.decode(def, args); err != nil {
			return nil, err
		}
	}
	if def.Type != common.DefaultType && def.Type != e.OutputType() {
		return nil, common.NewError(common.SchemaMismatchError,
			"%s is recorded as %s but produces %s", e, def.Type, e.OutputType())
	}
	return e, nil
}
