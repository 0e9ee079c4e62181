package pull

import (
	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// CompileContext carries the state of one compilation: the mapping from planning-time
// placeholders to the dense physical resource ids of the compiled plan.
type CompileContext struct {
	resources map[planner.PlaceholderID]int
}

func NewCompileContext() *CompileContext {
	return &CompileContext{resources: make(map[planner.PlaceholderID]int)}
}

// Resolve returns the physical resource id of a placeholder, assigning the next free id
// the first time the placeholder is seen.
func (c *CompileContext) Resolve(id planner.PlaceholderID) int {
	common.Assert(id != planner.InvalidPlaceholder, "resolving an unallocated placeholder")
	if rid, ok := c.resources[id]; ok {
		return rid
	}
	rid := len(c.resources)
	c.resources[id] = rid
	return rid
}

// NumResources returns the number of physical resources the plan needs.
func (c *CompileContext) NumResources() int {
	return len(c.resources)
}

// Compile compiles node, which must be in the pull convention, together with its inputs.
func (c *CompileContext) Compile(node planner.RelNode) (*streamdef.StreamDef, error) {
	n, ok := node.(Node)
	if !ok || node.Convention() != Convention {
		return nil, common.NewError(common.InvalidConfigurationError,
			"cannot compile %s in convention %s", node.Kind(), node.Convention())
	}
	def, err := n.ToStreamDef(c)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", node.Kind())
	}
	return def, nil
}

// compileInputs compiles the inputs of node in order.
func (c *CompileContext) compileInputs(node planner.RelNode) ([]*streamdef.StreamDef, error) {
	out := make([]*streamdef.StreamDef, 0, len(node.Children()))
	for _, child := range node.Children() {
		def, err := c.Compile(child)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

// Compile compiles a pull plan with a fresh context. Compiling the same plan twice
// yields equal descriptions.
func Compile(root planner.RelNode) (*streamdef.StreamDef, error) {
	return NewCompileContext().Compile(root)
}
