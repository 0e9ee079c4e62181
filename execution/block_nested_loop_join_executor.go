package execution

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// The number of left rows that the join operator is allowed to buffer
const blockRows = 1 << 10

// BlockNestedLoopJoinExecutor implements the block nested loop join algorithm.
// It loads a block of rows from the left child into memory and then scans the right child
// to find matches. This reduces the number of times the right child is restarted.
// A nil predicate joins every pair of rows.
type BlockNestedLoopJoinExecutor struct {
	def         *streamdef.StreamDef
	predicate   planner.Expr
	left, right Executor

	// Runtime State
	leftBuffer            []common.Row
	leftIndex, leftFilled int
	leftDone              bool
	current               common.Row
	ctx                   *ExecutorContext
	err                   error
}

// NewBlockNestedLoopJoinExecutor creates a new BlockNestedLoopJoinExecutor.
func NewBlockNestedLoopJoinExecutor(def *streamdef.StreamDef, predicate planner.Expr, left Executor, right Executor) *BlockNestedLoopJoinExecutor {
	return &BlockNestedLoopJoinExecutor{
		def:       def,
		predicate: predicate,
		left:      left,
		right:     right,
	}
}

func (e *BlockNestedLoopJoinExecutor) Def() *streamdef.StreamDef {
	return e.def
}

func (e *BlockNestedLoopJoinExecutor) Init(ctx *ExecutorContext) error {
	e.leftBuffer = make([]common.Row, blockRows)
	e.leftIndex = 0
	e.leftFilled = 0
	e.leftDone = false
	e.current = nil
	e.ctx = ctx
	e.err = nil
	// Note: We do not Init(right) here immediately because we will Init it
	// every time we load a new block from the left.
	return e.left.Init(ctx)
}

func (e *BlockNestedLoopJoinExecutor) newBlockIteration() bool {
	if e.leftDone {
		return false
	}
	// fetch the next block of rows on the left
	e.leftFilled = 0
	for e.leftFilled < len(e.leftBuffer) {
		if !e.left.Next() {
			if e.left.Error() != nil {
				e.err = e.left.Error()
				return false
			}
			e.leftDone = true
			break
		}
		e.leftBuffer[e.leftFilled] = e.left.Current()
		e.leftFilled++
	}
	if e.leftFilled == 0 {
		return false
	}

	// re-initialize the right scan
	if err := e.right.Init(e.ctx); err != nil {
		e.err = err
		return false
	}
	// Load the first row on the right
	if !e.right.Next() {
		if e.right.Error() != nil {
			e.err = e.right.Error()
		}
		// An empty right side produces nothing for any block.
		e.leftDone = true
		e.leftFilled = 0
		return false
	}
	e.leftIndex = 0
	return true
}

func (e *BlockNestedLoopJoinExecutor) Next() bool {
	if e.err != nil {
		return false
	}
	for {
		// If we don't have a left row batch, try to get one
		if e.leftFilled == 0 {
			if !e.newBlockIteration() {
				return false
			}
		}

		for e.leftIndex < e.leftFilled {
			leftRow := e.leftBuffer[e.leftIndex]
			e.leftIndex++
			joined := leftRow.Extend(e.right.Current())
			if e.predicate == nil || planner.IsTrue(e.predicate.Eval(joined)) {
				e.current = joined
				return true
			}
		}

		// Keep the left block and get the next right child
		e.leftIndex = 0
		if !e.right.Next() {
			if e.right.Error() != nil {
				e.err = e.right.Error()
				return false
			}
			// Signal that we are completely done with the left block. Time to fetch a new one
			e.leftFilled = 0
		}
	}
}

func (e *BlockNestedLoopJoinExecutor) Current() common.Row {
	return e.current
}

func (e *BlockNestedLoopJoinExecutor) Error() error {
	return e.err
}

func (e *BlockNestedLoopJoinExecutor) Close() error {
	if err := e.left.Close(); err != nil {
		return err
	}
	return e.right.Close()
}
