package session

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/execution"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/pull"
	"mit.edu/dsg/goplan/streamdef"
)

// Statement is a compiled plan. It is immutable and safe for concurrent use: every Open
// builds its own executors over the caller's ExecutorContext.
type Statement struct {
	def         *streamdef.StreamDef
	resources   int
	restartable bool
}

// Compile compiles a plan in the pull convention.
func (s *Session) Compile(root planner.RelNode) (*Statement, error) {
	s.checkOpen()
	if root.Convention() != pull.Convention {
		return nil, common.NewError(common.InvalidConfigurationError,
			"cannot compile a %s plan, convert it to %s first", root.Convention(), pull.Convention)
	}
	cc := pull.NewCompileContext()
	def, err := cc.Compile(root)
	if err != nil {
		return nil, err
	}
	st := &Statement{
		def:         def,
		resources:   cc.NumResources(),
		restartable: metadata.IsRestartable(s.registry, root),
	}
	level.Debug(s.logger).Log("msg", "compiled statement", "root", def.Kind, "resources", st.resources)
	return st, nil
}

// Plan converts root to the pull convention and compiles it.
func (s *Session) Plan(root planner.RelNode) (*Statement, error) {
	physical, err := s.Convert(root, pull.Convention)
	if err != nil {
		return nil, err
	}
	return s.Compile(physical)
}

// DecodeStatement rebuilds a statement from the output of Encode. The decoded
// statement does not know whether it is restartable.
func DecodeStatement(data []byte) (*Statement, error) {
	def, err := streamdef.Decode(data)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{})
	def.Walk(func(d *streamdef.StreamDef) {
		if rid, ok := d.Param(streamdef.ParamResourceID); ok {
			ids[rid] = struct{}{}
		}
	})
	return &Statement{def: def, resources: len(ids)}, nil
}

// Def returns the stream description. Callers must not modify it.
func (st *Statement) Def() *streamdef.StreamDef {
	return st.def
}

// NumResources returns the number of physical resource ids the plan uses.
func (st *Statement) NumResources() int {
	return st.resources
}

// Restartable reports whether the plan's output can be rewound and read again.
func (st *Statement) Restartable() bool {
	return st.restartable
}

// Open builds and initializes a fresh executor tree bound to ctx.
func (st *Statement) Open(ctx *execution.ExecutorContext) (execution.Executor, error) {
	exec, err := execution.Build(st.def)
	if err != nil {
		return nil, err
	}
	if err := exec.Init(ctx); err != nil {
		_ = exec.Close()
		return nil, errors.Wrap(err, "opening statement")
	}
	return exec, nil
}

// Encode serializes the statement for a plan cache.
func (st *Statement) Encode() ([]byte, error) {
	return streamdef.Encode(st.def)
}

func (st *Statement) String() string {
	return st.def.String()
}
