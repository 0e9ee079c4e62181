// Package rules converts plan nodes from one calling convention to another.
//
// A ConverterRule handles exactly one (node kind, source convention) pair and produces
// an equivalent node in its target convention. Rules are registered in a RuleSet, which
// keeps them in a deterministic order, and applied through a Converter, which checks
// that every produced node keeps the row type of the node it replaces.
package rules

import (
	"fmt"

	"mit.edu/dsg/goplan/planner"
)

// Env is the read-only view of the planning session a rule runs in.
type Env interface {
	// NewPlaceholder reserves a fresh planning-time resource id.
	NewPlaceholder() (planner.PlaceholderID, error)
}

// ConverterRule rewrites nodes of one kind from one convention into another.
type ConverterRule interface {
	// Name identifies the rule; names are unique within a RuleSet.
	Name() string

	// SourceKind is the only node kind this rule accepts.
	SourceKind() planner.Kind

	// SourceConvention is the convention of the nodes this rule accepts.
	SourceConvention() planner.Convention

	// TargetConvention is the convention of the nodes this rule produces.
	TargetConvention() planner.Convention

	// Convert returns the converted node, or nil to decline. Children of the result are
	// the children of node; converting them is the caller's job. Convert must not modify
	// node.
	Convert(env Env, node planner.RelNode) (planner.RelNode, error)
}

// ConvertFunc implements the body of a rule built with NewRule.
type ConvertFunc func(env Env, node planner.RelNode) (planner.RelNode, error)

// Rule is a ConverterRule backed by a function.
type Rule struct {
	name    string
	kind    planner.Kind
	from    planner.Convention
	to      planner.Convention
	convert ConvertFunc
}

var _ ConverterRule = (*Rule)(nil)

func NewRule(name string, kind planner.Kind, from, to planner.Convention, convert ConvertFunc) *Rule {
	return &Rule{name: name, kind: kind, from: from, to: to, convert: convert}
}

func (r *Rule) Name() string {
	return r.name
}

func (r *Rule) SourceKind() planner.Kind {
	return r.kind
}

func (r *Rule) SourceConvention() planner.Convention {
	return r.from
}

func (r *Rule) TargetConvention() planner.Convention {
	return r.to
}

func (r *Rule) Convert(env Env, node planner.RelNode) (planner.RelNode, error) {
	return r.convert(env, node)
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s(%s: %s -> %s)", r.name, r.kind, r.from, r.to)
}
