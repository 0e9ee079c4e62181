package goplan

import (
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	// Imports all sub-components
	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/execution"
	"mit.edu/dsg/goplan/rules"
	"mit.edu/dsg/goplan/session"
)

// GoPlan is the top-level container a host builds once per process. It holds the state
// every planning session shares: the catalog, the configuration, the logger and the
// metrics.
type GoPlan struct {
	Catalog      *catalog.Catalog
	Config       session.Config
	TableManager *execution.TableManager
	Logger       log.Logger
	Metrics      *rules.Metrics
}

// NewGoPlan wires a catalog and a configuration together. Metrics are registered on reg
// when it is not nil.
func NewGoPlan(cat *catalog.Catalog, cfg session.Config, logger log.Logger, reg prometheus.Registerer) (*GoPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	var metrics *rules.Metrics
	if reg != nil {
		metrics = rules.NewMetrics(reg)
	}
	return &GoPlan{
		Catalog:      cat,
		Config:       cfg,
		TableManager: execution.NewTableManager(cat),
		Logger:       logger,
		Metrics:      metrics,
	}, nil
}

// NewSession opens a planning session over the shared catalog.
func (g *GoPlan) NewSession(opts ...session.Option) (*session.Session, error) {
	base := []session.Option{session.WithLogger(g.Logger), session.WithMetrics(g.Metrics)}
	return session.New(g.Catalog, g.Config, append(base, opts...)...)
}

// NewExecutorContext returns a context for one execution over the in-memory tables.
func (g *GoPlan) NewExecutorContext() *execution.ExecutorContext {
	return execution.NewExecutorContext(g.TableManager)
}
