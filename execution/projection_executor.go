package execution

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// ProjectionExecutor evaluates a list of expressions on the input rows
// and produces a new row containing the results of those expressions.
type ProjectionExecutor struct {
	def         *streamdef.StreamDef
	expressions []planner.Expr
	child       Executor

	// Runtime state
	current common.Row
	err     error
}

// NewProjectionExecutor creates a new ProjectionExecutor.
func NewProjectionExecutor(def *streamdef.StreamDef, expressions []planner.Expr, child Executor) *ProjectionExecutor {
	return &ProjectionExecutor{
		def:         def,
		expressions: expressions,
		child:       child,
	}
}

func (e *ProjectionExecutor) Def() *streamdef.StreamDef {
	return e.def
}

func (e *ProjectionExecutor) Init(ctx *ExecutorContext) error {
	e.current = nil
	e.err = nil
	return e.child.Init(ctx)
}

func (e *ProjectionExecutor) Next() bool {
	if !e.child.Next() {
		e.err = e.child.Error()
		return false
	}

	childRow := e.child.Current()
	// Rows handed out earlier may still be referenced by the consumer.
	out := make(common.Row, len(e.expressions))
	for i, expr := range e.expressions {
		out[i] = expr.Eval(childRow)
	}
	e.current = out
	return true
}

func (e *ProjectionExecutor) Current() common.Row {
	return e.current
}

func (e *ProjectionExecutor) Error() error {
	return e.err
}

func (e *ProjectionExecutor) Close() error {
	return e.child.Close()
}
