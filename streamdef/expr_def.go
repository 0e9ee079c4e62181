package streamdef

import (
	"fmt"
	"strings"

	"mit.edu/dsg/goplan/common"
)

// Scalar expression operators.
const (
	ExprColumn    = "column"
	ExprConst     = "const"
	ExprCompare   = "cmp"
	ExprLogic     = "logic"
	ExprNot       = "not"
	ExprNullCheck = "nullcheck"
	ExprArith     = "arith"
	ExprConcat    = "concat"
	ExprLike      = "like"
)

// ExprDef is the serializable form of a scalar expression. Variant carries the operator
// symbol ("=", "AND", "+", "IS NULL", ...) for operators that have several flavors.
type ExprDef struct {
	Op      string        `json:"op"`
	Variant string        `json:"variant,omitempty"`
	Type    common.Type   `json:"type"`
	Field   int           `json:"field,omitempty"`
	Name    string        `json:"name,omitempty"`
	Value   *common.Value `json:"value,omitempty"`
	Args    []ExprDef     `json:"args,omitempty"`
}

func (e ExprDef) String() string {
	switch e.Op {
	case ExprColumn:
		if e.Name != "" {
			return e.Name
		}
		return fmt.Sprintf("$%d", e.Field)
	case ExprConst:
		if e.Value == nil {
			return "?"
		}
		return e.Value.String()
	case ExprNot:
		return fmt.Sprintf("!(%s)", e.arg(0))
	case ExprNullCheck:
		return fmt.Sprintf("(%s %s)", e.arg(0), e.Variant)
	case ExprConcat:
		return fmt.Sprintf("(%s || %s)", e.arg(0), e.arg(1))
	case ExprLike:
		return fmt.Sprintf("(%s LIKE %s)", e.arg(0), e.arg(1))
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, " "+e.Variant+" ") + ")"
}

func (e ExprDef) arg(i int) string {
	if i >= len(e.Args) {
		return "?"
	}
	return e.Args[i].String()
}
