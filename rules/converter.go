package rules

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
)

// Converter applies the rules of a RuleSet to individual nodes.
type Converter struct {
	rules   *RuleSet
	env     Env
	metrics *Metrics
	logger  log.Logger
}

// NewConverter creates a converter. metrics may be nil; logger may be nil for no logging.
func NewConverter(rules *RuleSet, env Env, metrics *Metrics, logger log.Logger) *Converter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Converter{rules: rules, env: env, metrics: metrics, logger: logger}
}

// TryConvert applies one rule to one node. A node of another kind or convention, and a
// rule that declines, both yield (nil, nil). A produced node in the wrong convention is
// an InvalidConfigurationError and one with a different row type is a
// SchemaMismatchError; both are fatal for the planning session.
func (c *Converter) TryConvert(rule ConverterRule, node planner.RelNode) (planner.RelNode, error) {
	if node.Kind() != rule.SourceKind() || node.Convention() != rule.SourceConvention() {
		c.metrics.observe(rule.Name(), OutcomeSkipped)
		return nil, nil
	}

	out, err := rule.Convert(c.env, node)
	if err != nil {
		c.metrics.observe(rule.Name(), OutcomeFailed)
		return nil, errors.Wrapf(err, "rule %s", rule.Name())
	}
	if out == nil {
		c.metrics.observe(rule.Name(), OutcomeDeclined)
		level.Debug(c.logger).Log("msg", "rule declined", "rule", rule.Name(), "node", node.String())
		return nil, nil
	}

	if out.Convention() != rule.TargetConvention() {
		c.metrics.observe(rule.Name(), OutcomeFailed)
		return nil, common.NewError(common.InvalidConfigurationError,
			"rule %s produced %s in convention %s, expected %s", rule.Name(), out.Kind(), out.Convention(), rule.TargetConvention())
	}
	if !out.RowType().Equals(node.RowType()) {
		c.metrics.observe(rule.Name(), OutcomeFailed)
		return nil, common.NewError(common.SchemaMismatchError,
			"rule %s changed row type of %s from %s to %s", rule.Name(), node.Kind(), node.RowType(), out.RowType())
	}
	c.metrics.observe(rule.Name(), OutcomeConverted)
	level.Debug(c.logger).Log("msg", "rule converted", "rule", rule.Name(), "from", node.String(), "to", out.String())
	return out, nil
}

// Alternatives returns every conversion of node into target offered by the registered
// rules, in registration order.
func (c *Converter) Alternatives(node planner.RelNode, target planner.Convention) ([]planner.RelNode, error) {
	var out []planner.RelNode
	for _, rule := range c.rules.For(node.Kind(), node.Convention()) {
		if rule.TargetConvention() != target {
			continue
		}
		alt, err := c.TryConvert(rule, node)
		if err != nil {
			return nil, err
		}
		if alt != nil {
			out = append(out, alt)
		}
	}
	return out, nil
}
