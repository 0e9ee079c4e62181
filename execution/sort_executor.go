package execution

import (
	"sort"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// SortKey is one field of a sort order.
type SortKey struct {
	Field     int
	Direction planner.SortDirection
}

// SortExecutor sorts the input rows by a list of fields.
// It is a blocking operator but uses lazy evaluation (sorts on first Next).
type SortExecutor struct {
	def   *streamdef.StreamDef
	keys  []SortKey
	child Executor

	// Runtime state
	sortedRows   []common.Row
	sorted       bool
	currentIndex int
	ctx          *ExecutorContext
}

func NewSortExecutor(def *streamdef.StreamDef, keys []SortKey, child Executor) *SortExecutor {
	return &SortExecutor{
		def:   def,
		keys:  keys,
		child: child,
	}
}

func (e *SortExecutor) Def() *streamdef.StreamDef {
	return e.def
}

// Init rewinds over the already sorted rows when restarted in the same context, so the
// input is read only once per execution.
func (e *SortExecutor) Init(ctx *ExecutorContext) error {
	e.currentIndex = -1
	if e.sorted && e.ctx == ctx {
		return nil
	}
	e.sortedRows = nil
	e.sorted = false
	e.ctx = ctx
	return e.child.Init(ctx)
}

func (e *SortExecutor) sortAllRows() bool {
	e.sortedRows = make([]common.Row, 0)
	for e.child.Next() {
		e.sortedRows = append(e.sortedRows, e.child.Current())
	}
	if e.child.Error() != nil {
		return false
	}
	e.sorted = true

	// Stable, so that rows with equal keys keep their input order.
	sort.SliceStable(e.sortedRows, func(i, j int) bool {
		r1 := e.sortedRows[i]
		r2 := e.sortedRows[j]
		for _, key := range e.keys {
			cmp := r1[key.Field].Compare(r2[key.Field])
			if cmp == 0 {
				continue
			}
			if key.Direction == planner.SortOrderAscending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return true
}

func (e *SortExecutor) Next() bool {
	if e.sortedRows == nil {
		if !e.sortAllRows() {
			return false
		}
	}
	e.currentIndex++
	return e.currentIndex < len(e.sortedRows)
}

func (e *SortExecutor) Current() common.Row {
	return e.sortedRows[e.currentIndex]
}

func (e *SortExecutor) Error() error {
	return e.child.Error()
}

func (e *SortExecutor) Close() error {
	e.sortedRows = nil
	e.sorted = false
	return e.child.Close()
}
