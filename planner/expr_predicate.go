package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// CompareOp is a comparison operator, spelled the way it is serialized.
type CompareOp string

const (
	CmpEq CompareOp = "="
	CmpNe CompareOp = "!="
	CmpGt CompareOp = ">"
	CmpLt CompareOp = "<"
	CmpGe CompareOp = ">="
	CmpLe CompareOp = "<="
)

var compareResults = map[CompareOp]func(cmp int) bool{
	CmpEq: func(c int) bool { return c == 0 },
	CmpNe: func(c int) bool { return c != 0 },
	CmpGt: func(c int) bool { return c > 0 },
	CmpLt: func(c int) bool { return c < 0 },
	CmpGe: func(c int) bool { return c >= 0 },
	CmpLe: func(c int) bool { return c <= 0 },
}

// Comparison compares two operands of the same type. Comparing with NULL is unknown.
type Comparison struct {
	op          CompareOp
	left, right Expr
	test        func(int) bool
}

func NewComparison(op CompareOp, left, right Expr) (*Comparison, error) {
	test, ok := compareResults[op]
	if !ok {
		return nil, errors.Newf("unknown comparison %q", op)
	}
	if err := requireTypes(string(op), left.OutputType(), right); err != nil {
		return nil, err
	}
	return &Comparison{op: op, left: left, right: right, test: test}, nil
}

func decodeComparison(def streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewComparison(CompareOp(def.Variant), args[0], args[1])
}

func (e *Comparison) Eval(row common.Row) common.Value {
	l, r := e.left.Eval(row), e.right.Eval(row)
	if l.IsNull() || r.IsNull() {
		return common.NewNullInt()
	}
	return boolValue(e.test(l.Compare(r)))
}

func (e *Comparison) OutputType() common.Type {
	return common.IntType
}

func (e *Comparison) Describe() streamdef.ExprDef {
	return binaryDef(streamdef.ExprCompare, string(e.op), common.IntType, e.left, e.right)
}

func (e *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left, e.op, e.right)
}

// LogicOp is AND or OR.
type LogicOp string

const (
	LogicAnd LogicOp = "AND"
	LogicOr  LogicOp = "OR"
)

// Logic combines two booleans with Kleene logic: FALSE AND NULL is false and TRUE OR
// NULL is true; every other combination involving NULL is unknown.
type Logic struct {
	op          LogicOp
	left, right Expr
}

func NewLogic(op LogicOp, left, right Expr) (*Logic, error) {
	if op != LogicAnd && op != LogicOr {
		return nil, errors.Newf("unknown logical operator %q", op)
	}
	if err := requireTypes(string(op), common.IntType, left, right); err != nil {
		return nil, err
	}
	return &Logic{op: op, left: left, right: right}, nil
}

func decodeLogic(def streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewLogic(LogicOp(def.Variant), args[0], args[1])
}

func (e *Logic) Eval(row common.Row) common.Value {
	l, r := e.left.Eval(row), e.right.Eval(row)
	// dominant decides the result on its own; the identity needs both sides.
	dominant, identity := isFalse, IsTrue
	if e.op == LogicOr {
		dominant, identity = IsTrue, isFalse
	}
	switch {
	case dominant(l) || dominant(r):
		return boolValue(e.op == LogicOr)
	case identity(l) && identity(r):
		return boolValue(e.op == LogicAnd)
	}
	return common.NewNullInt()
}

func (e *Logic) OutputType() common.Type {
	return common.IntType
}

func (e *Logic) Describe() streamdef.ExprDef {
	return binaryDef(streamdef.ExprLogic, string(e.op), common.IntType, e.left, e.right)
}

func (e *Logic) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left, e.op, e.right)
}

// Not negates a boolean; NOT NULL is NULL.
type Not struct {
	child Expr
}

func NewNot(child Expr) (*Not, error) {
	if err := requireTypes("NOT", common.IntType, child); err != nil {
		return nil, err
	}
	return &Not{child: child}, nil
}

func decodeNot(_ streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewNot(args[0])
}

func (e *Not) Eval(row common.Row) common.Value {
	v := e.child.Eval(row)
	if v.IsNull() {
		return common.NewNullInt()
	}
	return boolValue(!IsTrue(v))
}

func (e *Not) OutputType() common.Type {
	return common.IntType
}

func (e *Not) Describe() streamdef.ExprDef {
	return streamdef.ExprDef{Op: streamdef.ExprNot, Type: common.IntType, Args: []streamdef.ExprDef{e.child.Describe()}}
}

func (e *Not) String() string {
	return fmt.Sprintf("!(%s)", e.child)
}

// NullTestOp selects IS NULL or IS NOT NULL.
type NullTestOp string

const (
	IsNull    NullTestOp = "IS NULL"
	IsNotNull NullTestOp = "IS NOT NULL"
)

// NullTest checks an operand of any type for NULL. It is never unknown.
type NullTest struct {
	op    NullTestOp
	child Expr
}

func NewNullTest(op NullTestOp, child Expr) (*NullTest, error) {
	if op != IsNull && op != IsNotNull {
		return nil, errors.Newf("unknown null test %q", op)
	}
	return &NullTest{op: op, child: child}, nil
}

func decodeNullTest(def streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewNullTest(NullTestOp(def.Variant), args[0])
}

func (e *NullTest) Eval(row common.Row) common.Value {
	return boolValue(e.child.Eval(row).IsNull() == (e.op == IsNull))
}

func (e *NullTest) OutputType() common.Type {
	return common.IntType
}

func (e *NullTest) Describe() streamdef.ExprDef {
	return streamdef.ExprDef{
		Op:      streamdef.ExprNullCheck,
		Variant: string(e.op),
		Type:    common.IntType,
		Args:    []streamdef.ExprDef{e.child.Describe()},
	}
}

func (e *NullTest) String() string {
	return fmt.Sprintf("(%s %s)", e.child, e.op)
}

// Like matches a string against a SQL LIKE pattern, where % is any run of characters,
// _ is any single character and a backslash escapes either. A literal pattern is
// compiled once.
type Like struct {
	value, pattern Expr
	compiled       *regexp.Regexp
}

func NewLike(value, pattern Expr) (*Like, error) {
	if err := requireTypes("LIKE", common.StringType, value, pattern); err != nil {
		return nil, err
	}
	e := &Like{value: value, pattern: pattern}
	if lit, ok := pattern.(*Literal); ok && !lit.val.IsNull() {
		e.compiled = likePattern(lit.val.StringValue())
	}
	return e, nil
}

func decodeLike(_ streamdef.ExprDef, args []Expr) (Expr, error) {
	return NewLike(args[0], args[1])
}

func (e *Like) Eval(row common.Row) common.Value {
	v, p := e.value.Eval(row), e.pattern.Eval(row)
	if v.IsNull() || p.IsNull() {
		return common.NewNullInt()
	}
	re := e.compiled
	if re == nil {
		re = likePattern(p.StringValue())
	}
	return boolValue(re.MatchString(v.StringValue()))
}

func (e *Like) OutputType() common.Type {
	return common.IntType
}

func (e *Like) Describe() streamdef.ExprDef {
	return binaryDef(streamdef.ExprLike, "LIKE", common.IntType, e.value, e.pattern)
}

func (e *Like) String() string {
	return fmt.Sprintf("(%s LIKE %s)", e.value, e.pattern)
}

// likePattern translates a LIKE pattern into an anchored regular expression. Every
// other character is quoted, so the result always compiles.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^(?s)")
	chars := []rune(pattern)
	for i := 0; i < len(chars); i++ {
		switch c := chars[i]; {
		case c == '\\' && i+1 < len(chars) && (chars[i+1] == '%' || chars[i+1] == '_'):
			i++
			b.WriteString(regexp.QuoteMeta(string(chars[i])))
		case c == '%':
			b.WriteString(".*")
		case c == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func binaryDef(op, variant string, t common.Type, left, right Expr) streamdef.ExprDef {
	return streamdef.ExprDef{
		Op:      op,
		Variant: variant,
		Type:    t,
		Args:    []streamdef.ExprDef{left.Describe(), right.Describe()},
	}
}
