package execution

import (
	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/streamdef"
)

// SeqScanExecutor reads a table front to back and emits the listed columns.
type SeqScanExecutor struct {
	def      *streamdef.StreamDef
	oid      common.ObjectID
	columns  []int
	resource int

	initialized  bool
	rows         []common.Row
	current      common.Row
	currentIndex int
	err          error
}

func NewSeqScanExecutor(def *streamdef.StreamDef, oid common.ObjectID, columns []int, resource int) *SeqScanExecutor {
	return &SeqScanExecutor{def: def, oid: oid, columns: columns, resource: resource}
}

func (e *SeqScanExecutor) Def() *streamdef.StreamDef {
	return e.def
}

func (e *SeqScanExecutor) Init(ctx *ExecutorContext) error {
	common.Assert(ctx.Tables() != nil, "SeqScanExecutor needs a table source")
	rows, err := ctx.Tables().Rows(e.oid)
	if err != nil {
		return errors.Wrapf(err, "scan of table %d", e.oid)
	}
	ctx.noteOpen(e.resource)
	e.initialized = true
	e.rows = rows
	e.currentIndex = -1
	e.err = nil
	return nil
}

func (e *SeqScanExecutor) Next() bool {
	common.Assert(e.initialized, "SeqScanExecutor.Init() must be called before calling Next()")
	if e.err != nil || e.currentIndex+1 >= len(e.rows) {
		return false
	}
	e.currentIndex++
	src := e.rows[e.currentIndex]
	out := make(common.Row, len(e.columns))
	for i, c := range e.columns {
		if c < 0 || c >= len(src) {
			e.err = common.NewError(common.SchemaMismatchError,
				"column %d out of range for a row of %d values in table %d", c, len(src), e.oid)
			return false
		}
		out[i] = src[c]
	}
	e.current = out
	return true
}

func (e *SeqScanExecutor) Current() common.Row {
	return e.current
}

func (e *SeqScanExecutor) Error() error {
	return e.err
}

func (e *SeqScanExecutor) Close() error {
	e.initialized = false
	e.rows = nil
	return nil
}
