package execution

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// Executor is the interface that all pull operators built from a stream description
// implement.
type Executor interface {
	Def() *streamdef.StreamDef

	// Init (re)starts the executor against an execution context. Calling Init again
	// after rows were read rewinds the executor to its first row.
	Init(ctx *ExecutorContext) error

	// Next retrieves the next row from the executor.
	Next() bool

	// Current returns the row most recently read by Next(). Callers must not modify it.
	Current() common.Row

	// Error returns the last error encountered by the executor, if any.
	Error() error

	// Close cleans up any resources held by the executor.
	Close() error
}

// Drain reads every remaining row of an initialized executor.
func Drain(e Executor) ([]common.Row, error) {
	var rows []common.Row
	for e.Next() {
		rows = append(rows, e.Current())
	}
	return rows, e.Error()
}
