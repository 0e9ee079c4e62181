package session

import (
	"github.com/go-kit/log/level"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
)

// costed is implemented by physical nodes that can estimate their own cost.
type costed interface {
	SelfCost(reg *metadata.Registry) planner.Cost
}

// Convert rewrites the tree rooted at root into the target convention, bottom-up. At
// every node the cheapest alternative offered by the rules wins, and among equally
// cheap alternatives the one from the earliest registered rule. Nodes already in the
// target convention are kept.
//
// A node that no rule converts yields a NoPlanError. A tree deeper than the configured
// MaxTreeDepth yields a ResourceExhaustedError before any rule runs.
func (s *Session) Convert(root planner.RelNode, target planner.Convention) (planner.RelNode, error) {
	s.checkOpen()
	if planner.Depth(root, s.cfg.MaxTreeDepth) > s.cfg.MaxTreeDepth {
		return nil, common.NewError(common.ResourceExhaustedError, "plan deeper than %d nodes", s.cfg.MaxTreeDepth)
	}
	out, err := s.convert(root, target)
	if err != nil {
		level.Warn(s.logger).Log("msg", "conversion failed", "convention", target, "err", err)
		return nil, err
	}
	level.Debug(s.logger).Log("msg", "converted plan", "convention", target, "placeholders", s.placeholders.Allocated())
	return out, nil
}

func (s *Session) convert(node planner.RelNode, target planner.Convention) (planner.RelNode, error) {
	children := node.Children()
	converted := make([]planner.RelNode, len(children))
	changed := false
	for i, child := range children {
		c, err := s.convert(child, target)
		if err != nil {
			return nil, err
		}
		converted[i] = c
		changed = changed || c != child
	}

	if node.Convention() == target {
		if changed {
			return node.WithChildren(converted), nil
		}
		return node, nil
	}

	alternatives, err := s.converter.Alternatives(node, target)
	if err != nil {
		return nil, err
	}
	if len(alternatives) == 0 {
		return nil, common.NewError(common.NoPlanError,
			"no rule converts %s from %s to %s", node.Kind(), node.Convention(), target)
	}

	var best planner.RelNode
	var bestCost planner.Cost
	for _, alt := range alternatives {
		if len(converted) > 0 {
			alt = alt.WithChildren(converted)
		}
		cost := s.selfCost(alt)
		if best == nil || cost.Less(bestCost) {
			best, bestCost = alt, cost
		}
	}
	return best, nil
}

func (s *Session) selfCost(node planner.RelNode) planner.Cost {
	if c, ok := node.(costed); ok {
		return c.SelfCost(s.registry)
	}
	return planner.TinyCost
}
