package execution

import (
	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// MaterializeExecutor acts as a pipeline barrier.
// It consumes rows from its child during the first execution and stores them in the
// buffer its resource id names in the ExecutorContext. Subsequent calls to Init/Next
// iterate over the stored rows and only pull from the child once the buffer runs out.
// The buffer outlives the executor: another executor built for the same plan and run in
// the same context replays it, and if it is incomplete, restarts its own child and
// skips the rows already buffered.
type MaterializeExecutor struct {
	def      *streamdef.StreamDef
	resource int
	child    Executor

	// Runtime state
	buf          *buffer
	childInit    bool
	skip         int
	currentIndex int
	err          error
}

func NewMaterializeExecutor(def *streamdef.StreamDef, resource int, child Executor) *MaterializeExecutor {
	return &MaterializeExecutor{
		def:      def,
		resource: resource,
		child:    child,
	}
}

func (e *MaterializeExecutor) Def() *streamdef.StreamDef {
	return e.def
}

func (e *MaterializeExecutor) Init(ctx *ExecutorContext) error {
	e.currentIndex = -1
	e.err = nil
	e.buf = ctx.buffer(e.resource)
	if e.childInit || e.buf.complete {
		return nil
	}
	if err := e.child.Init(ctx); err != nil {
		return err
	}
	e.childInit = true
	e.skip = len(e.buf.rows)
	return nil
}

func (e *MaterializeExecutor) Next() bool {
	if e.err != nil {
		return false
	}
	e.currentIndex++
	if e.currentIndex < len(e.buf.rows) {
		return true
	}
	if e.buf.complete {
		return false
	}
	for e.skip > 0 && e.child.Next() {
		e.skip--
	}
	if e.skip == 0 && e.child.Next() {
		e.buf.rows = append(e.buf.rows, e.child.Current())
		return true
	}
	if e.err = e.child.Error(); e.err == nil && e.skip > 0 {
		e.err = errors.Newf("input of materialization %d ended %d rows short of its buffer", e.resource, e.skip)
	}
	if e.err == nil {
		e.buf.complete = true
	}
	return false
}

func (e *MaterializeExecutor) Current() common.Row {
	return e.buf.rows[e.currentIndex]
}

func (e *MaterializeExecutor) Error() error {
	return e.err
}

func (e *MaterializeExecutor) Close() error {
	if !e.childInit {
		return nil
	}
	e.childInit = false
	return e.child.Close()
}
