package execution

import (
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// ValuesExecutor replays the literal rows carried by a OneRow or Values description.
// The rows are shared by every execution of the plan and are never modified.
type ValuesExecutor struct {
	def          *streamdef.StreamDef
	currentIndex int
}

func NewValuesExecutor(def *streamdef.StreamDef) *ValuesExecutor {
	return &ValuesExecutor{def: def, currentIndex: -1}
}

func (e *ValuesExecutor) Def() *streamdef.StreamDef {
	return e.def
}

func (e *ValuesExecutor) Init(*ExecutorContext) error {
	e.currentIndex = -1
	return nil
}

func (e *ValuesExecutor) Next() bool {
	if e.currentIndex >= len(e.def.Rows) {
		return false
	}
	e.currentIndex++
	return e.currentIndex < len(e.def.Rows)
}

func (e *ValuesExecutor) Current() common.Row {
	return e.def.Rows[e.currentIndex]
}

func (e *ValuesExecutor) Error() error {
	return nil
}

func (e *ValuesExecutor) Close() error {
	return nil
}
