package execution

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// FilterExecutor filters rows from its child executor based on a predicate.
type FilterExecutor struct {
	def       *streamdef.StreamDef
	predicate planner.Expr
	child     Executor
}

// NewFilter creates a new FilterExecutor executor.
func NewFilter(def *streamdef.StreamDef, predicate planner.Expr, child Executor) *FilterExecutor {
	return &FilterExecutor{
		def:       def,
		predicate: predicate,
		child:     child,
	}
}

func (e *FilterExecutor) Def() *streamdef.StreamDef {
	return e.def
}

// Init initializes the child.
func (e *FilterExecutor) Init(context *ExecutorContext) error {
	return e.child.Init(context)
}

func (e *FilterExecutor) Next() bool {
	for e.child.Next() {
		res := e.predicate.Eval(e.child.Current())

		if planner.IsTrue(res) {
			return true
		}
	}
	return false
}

func (e *FilterExecutor) Current() common.Row {
	return e.child.Current()
}

func (e *FilterExecutor) Error() error {
	return e.child.Error()
}

func (e *FilterExecutor) Close() error {
	return e.child.Close()
}
