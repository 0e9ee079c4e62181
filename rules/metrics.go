package rules

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of one rule application.
const (
	OutcomeSkipped   = "skipped"
	OutcomeDeclined  = "declined"
	OutcomeConverted = "converted"
	OutcomeFailed    = "failed"
)

// Metrics holds all Prometheus metrics for rule application.
type Metrics struct {
	RuleAttempts *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	ruleAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goplan_rule_attempts_total",
		Help: "Converter rule applications by rule and outcome",
	}, []string{"rule", "outcome"})

	reg.MustRegister(ruleAttempts)

	return &Metrics{
		RuleAttempts: ruleAttempts,
	}
}

func (m *Metrics) observe(rule, outcome string) {
	if m == nil {
		return
	}
	m.RuleAttempts.WithLabelValues(rule, outcome).Inc()
}
