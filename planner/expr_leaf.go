package planner

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// ColumnRef reads one field of the input row.
type ColumnRef struct {
	field int
	typ   common.Type
	name  string
}

// NewColumnRef references input field i of type t. name is only used for display.
func NewColumnRef(i int, t common.Type, name string) *ColumnRef {
	common.Assert(i >= 0, "negative field reference %d", i)
	return &ColumnRef{field: i, typ: t, name: name}
}

// Ref returns a reference to the i-th field of r.
func (r RowType) Ref(i int) *ColumnRef {
	f := r.Field(i)
	return NewColumnRef(i, f.Type, f.Name)
}

func (e *ColumnRef) Eval(row common.Row) common.Value {
	return row.GetValue(e.field)
}

func (e *ColumnRef) OutputType() common.Type {
	return e.typ
}

func (e *ColumnRef) Describe() streamdef.ExprDef {
	return streamdef.ExprDef{Op: streamdef.ExprColumn, Type: e.typ, Field: e.field, Name: e.name}
}

func (e *ColumnRef) String() string {
	return e.Describe().String()
}

// Literal is a constant, possibly NULL.
type Literal struct {
	val common.Value
}

func NewLiteral(v common.Value) *Literal {
	return &Literal{val: v}
}

// IntLiteral and StringLiteral are shorthands for non-NULL literals.
func IntLiteral(v int64) *Literal {
	return NewLiteral(common.NewIntValue(v))
}

func StringLiteral(v string) *Literal {
	return NewLiteral(common.NewStringValue(v))
}

func (e *Literal) Eval(common.Row) common.Value {
	return e.val
}

func (e *Literal) OutputType() common.Type {
	return e.val.Type()
}

func (e *Literal) Value() common.Value {
	return e.val
}

func (e *Literal) Describe() streamdef.ExprDef {
	v := e.val
	return streamdef.ExprDef{Op: streamdef.ExprConst, Type: v.Type(), Value: &v}
}

func (e *Literal) String() string {
	return e.val.String()
}
