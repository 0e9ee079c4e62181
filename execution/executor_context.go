package execution

import "mit.edu/dsg/goplan/common"

// ExecutorContext holds the state of one execution of a compiled plan. Resource ids in
// the plan (scan cursors, materialization buffers) index into it, so two executions of
// the same plan never share state as long as they use different contexts.
// An ExecutorContext is not safe for concurrent use.
type ExecutorContext struct {
	tables  TableSource
	buffers map[int]*buffer
	opens   map[int]int
}

type buffer struct {
	rows     []common.Row
	complete bool
}

func NewExecutorContext(tables TableSource) *ExecutorContext {
	return &ExecutorContext{
		tables:  tables,
		buffers: make(map[int]*buffer),
		opens:   make(map[int]int),
	}
}

func (ctx *ExecutorContext) Tables() TableSource {
	return ctx.tables
}

// Opens returns how many times the scan owning resource was started in this context.
func (ctx *ExecutorContext) Opens(resource int) int {
	return ctx.opens[resource]
}

// BufferedRows returns the number of rows held by the buffer owning resource.
func (ctx *ExecutorContext) BufferedRows(resource int) int {
	if b, ok := ctx.buffers[resource]; ok {
		return len(b.rows)
	}
	return 0
}

func (ctx *ExecutorContext) noteOpen(resource int) {
	ctx.opens[resource]++
}

func (ctx *ExecutorContext) buffer(resource int) *buffer {
	b, ok := ctx.buffers[resource]
	if !ok {
		b = &buffer{}
		ctx.buffers[resource] = b
	}
	return b
}
