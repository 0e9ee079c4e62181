// Package session drives the conversion and compilation of plans. A Session owns every
// registry it uses, so sessions never share mutable planning state and any number of
// them can run side by side.
package session

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/pull"
	"mit.edu/dsg/goplan/rules"
)

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the logger the session derives its own logger from.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records rule applications in m. Metrics are usually shared by every
// session of a process.
func WithMetrics(m *rules.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithCluster sets the cluster id of the nodes built through the session.
func WithCluster(id planner.ClusterID) Option {
	return func(s *Session) {
		s.cluster = id
	}
}

// Session is one planning session. Planning is single-threaded: a Session must not be
// used from several goroutines at once. Statements it compiles have no such restriction.
type Session struct {
	id      string
	catalog *catalog.Catalog
	cfg     Config
	cluster planner.ClusterID
	logger  log.Logger
	metrics *rules.Metrics

	ruleSet      *rules.RuleSet
	registry     *metadata.Registry
	placeholders *planner.PlaceholderAllocator
	converter    *rules.Converter
	closed       bool
}

var _ rules.Env = (*Session)(nil)

// New creates a session over cat with the pull convention installed.
func New(cat *catalog.Catalog, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:           uuid.NewString(),
		catalog:      cat,
		cfg:          cfg,
		cluster:      1,
		logger:       log.NewNopLogger(),
		ruleSet:      rules.NewRuleSet(),
		registry:     metadata.NewDefaultRegistry(),
		placeholders: planner.NewPlaceholderAllocator(cfg.MaxPlaceholders),
	}
	for _, opt := range opts {
		opt(s)
	}
	allow, _ := cfg.levelOption()
	s.logger = log.With(level.NewFilter(s.logger, allow), "session", s.id)

	if err := pull.RegisterMetadata(s.registry); err != nil {
		return nil, errors.Wrap(err, "installing pull metadata")
	}
	if err := pull.RegisterRules(s.ruleSet, s.logger); err != nil {
		return nil, errors.Wrap(err, "installing pull rules")
	}
	if cfg.CacheMetadata {
		for _, q := range []string{metadata.QueryRestartable, metadata.QueryRowCount, metadata.QueryColumnsUnique, metadata.QueryOrdering} {
			s.registry.EnableCaching(q)
		}
	}
	s.converter = rules.NewConverter(s.ruleSet, s, s.metrics, s.logger)
	level.Debug(s.logger).Log("msg", "session opened", "rules", s.ruleSet.Len())
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Session) Cluster() planner.ClusterID {
	return s.cluster
}

// Registry is the session's metadata registry. Extensions register their handlers here.
func (s *Session) Registry() *metadata.Registry {
	return s.registry
}

// AddRule registers an extension rule. It runs after the rules already registered for
// the same kind and convention.
func (s *Session) AddRule(rule rules.ConverterRule) error {
	s.checkOpen()
	if err := s.ruleSet.Add(rule); err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "registered rule", "rule", rule.Name())
	return nil
}

// NewPlaceholder implements rules.Env.
func (s *Session) NewPlaceholder() (planner.PlaceholderID, error) {
	return s.placeholders.Allocate()
}

// Close drops the session's planning state. Statements compiled by the session stay
// usable.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.registry.ClearCaches()
	s.closed = true
	level.Debug(s.logger).Log("msg", "session closed", "placeholders", s.placeholders.Allocated())
}

func (s *Session) checkOpen() {
	common.Assert(!s.closed, "session %s used after Close", s.id)
}
