package rules

import (
	"github.com/tidwall/btree"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
)

type ruleItem struct {
	kind       planner.Kind
	convention planner.Convention
	seq        uint64
	rule       ConverterRule
}

// RuleSet indexes converter rules by the (kind, convention) of the nodes they accept.
// Rules for the same pair are returned in registration order.
type RuleSet struct {
	tree  *btree.BTreeG[ruleItem]
	names map[string]struct{}
	seq   uint64
}

func NewRuleSet() *RuleSet {
	// Primary order by kind and convention, secondary order by registration sequence.
	less := func(a, b ruleItem) bool {
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.convention != b.convention {
			return a.convention < b.convention
		}
		return a.seq < b.seq
	}
	return &RuleSet{
		tree:  btree.NewBTreeG(less),
		names: make(map[string]struct{}),
	}
}

// Add registers rule. A second rule with the same name, or a rule whose source and
// target conventions are equal, is an InvalidConfigurationError.
func (s *RuleSet) Add(rule ConverterRule) error {
	if _, ok := s.names[rule.Name()]; ok {
		return common.NewError(common.InvalidConfigurationError, "rule %q is already registered", rule.Name())
	}
	if rule.SourceConvention() == rule.TargetConvention() {
		return common.NewError(common.InvalidConfigurationError,
			"rule %q converts %s to itself", rule.Name(), rule.SourceConvention())
	}
	s.seq++
	s.names[rule.Name()] = struct{}{}
	s.tree.Set(ruleItem{kind: rule.SourceKind(), convention: rule.SourceConvention(), seq: s.seq, rule: rule})
	return nil
}

// For returns the rules accepting nodes of the given kind and convention.
func (s *RuleSet) For(kind planner.Kind, convention planner.Convention) []ConverterRule {
	var out []ConverterRule
	s.tree.Ascend(ruleItem{kind: kind, convention: convention}, func(item ruleItem) bool {
		if item.kind != kind || item.convention != convention {
			return false
		}
		out = append(out, item.rule)
		return true
	})
	return out
}

// All returns every registered rule, ordered by kind, convention and registration.
func (s *RuleSet) All() []ConverterRule {
	out := make([]ConverterRule, 0, s.tree.Len())
	s.tree.Scan(func(item ruleItem) bool {
		out = append(out, item.rule)
		return true
	})
	return out
}

// Len returns the number of registered rules.
func (s *RuleSet) Len() int {
	return s.tree.Len()
}
