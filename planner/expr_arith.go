package planner

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// ArithOp is an integer operator, spelled the way it is serialized.
type ArithOp string

const (
	ArithAdd ArithOp = "+"
	ArithSub ArithOp = "-"
	ArithMul ArithOp = "*"
	ArithDiv ArithOp = "/"
	ArithMod ArithOp = "%"
)

// arithFuncs return false when the result is undefined (division by zero), which
// evaluates to NULL.
var arithFuncs = map[ArithOp]func(a, b int64) (int64, bool){
	ArithAdd: func(a, b int64) (int64, bool) { return a + b, true },
	ArithSub: func(a, b int64) (int64, bool) { return a - b, true },
	ArithMul: func(a, b int64) (int64, bool) { return a * b, true },
	ArithDiv: func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	},
	ArithMod: func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	},
}

// Arithmetic applies an integer operator. NULL operands give NULL.
type Arithmetic struct {
	op          ArithOp
	left, right Expr
	apply       func(a, b int64) (int64, bool)
}

func NewArithmetic(op ArithOp, left, right Expr) (*Arithmetic, error) {
	apply, ok := arithFuncs[op]
	if !ok {
		return nil, errors.Newf("unknown arithmetic operator %q", op)
	}
	if err := requireTypes(string(op), common.IntType, left, right); err != nil {
		return nil, err
	}
	return &Arithmetic{op: op, left: left, right: right, apply: apply}, nil
}

func decodeArithmetic(def streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewArithmetic(ArithOp(def.Variant), args[0], args[1])
}

func (e *Arithmetic) Eval(row common.Row) common.Value {
	l, r := e.left.Eval(row), e.right.Eval(row)
	if l.IsNull() || r.IsNull() {
		return common.NewNullInt()
	}
	v, ok := e.apply(l.IntValue(), r.IntValue())
	if !ok {
		return common.NewNullInt()
	}
	return common.NewIntValue(v)
}

func (e *Arithmetic) OutputType() common.Type {
	return common.IntType
}

func (e *Arithmetic) Describe() streamdef.ExprDef {
	return binaryDef(streamdef.ExprArith, string(e.op), common.IntType, e.left, e.right)
}

func (e *Arithmetic) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left, e.op, e.right)
}

// Concat joins two strings. A NULL operand gives a NULL string.
type Concat struct {
	left, right Expr
}

func NewConcat(left, right Expr) (*Concat, error) {
	if err := requireTypes("||", common.StringType, left, right); err != nil {
		return nil, err
	}
	return &Concat{left: left, right: right}, nil
}

func decodeConcat(_ streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewConcat(args[0], args[1])
}

func (e *Concat) Eval(row common.Row) common.Value {
	l, r := e.left.Eval(row), e.right.Eval(row)
	if l.IsNull() || r.IsNull() {
		return common.NewNullString()
	}
	return common.NewStringValue(l.StringValue() + r.StringValue())
}

func (e *Concat) OutputType() common.Type {
	return common.StringType
}

func (e *Concat) Describe() streamdef.ExprDef {
	return binaryDef(streamdef.ExprConcat, "||", common.StringType, e.left, e.right)
}

func (e *Concat) String() string {
	return fmt.Sprintf("(%s || %s)", e.left, e.right)
}
