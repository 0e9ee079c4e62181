package execution

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// LimitExecutor limits the number of rows returned by the child executor.
type LimitExecutor struct {
	def   *streamdef.StreamDef
	limit int
	child Executor

	numEmitted int
}

func NewLimitExecutor(def *streamdef.StreamDef, limit int, child Executor) *LimitExecutor {
	return &LimitExecutor{
		def:   def,
		limit: limit,
		child: child,
	}
}

func (e *LimitExecutor) Def() *streamdef.StreamDef {
	return e.def
}

func (e *LimitExecutor) Init(ctx *ExecutorContext) error {
	e.numEmitted = 0
	return e.child.Init(ctx)
}

func (e *LimitExecutor) Next() bool {
	if e.numEmitted >= e.limit {
		return false
	}

	if e.child.Next() {
		e.numEmitted++
		return true
	}
	return false
}

func (e *LimitExecutor) Current() common.Row {
	return e.child.Current()
}

func (e *LimitExecutor) Error() error {
	return e.child.Error()
}

func (e *LimitExecutor) Close() error {
	return e.child.Close()
}
