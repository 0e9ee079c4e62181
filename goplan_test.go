package goplan

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/execution"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/session"
)

func TestGoPlan_ScanAfterInsert(t *testing.T) {
	provider := &catalog.MemCatalogManager{}
	cat, err := catalog.NewCatalog(provider)
	require.NoError(t, err)
	table, err := cat.AddTable("numbers", []catalog.Column{{Name: "n", Type: common.IntType}}, provider)
	require.NoError(t, err)

	g, err := NewGoPlan(cat, session.DefaultConfig(), nil, prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, g.TableManager.Insert(table.Oid, common.Row{common.NewIntValue(7)}, common.Row{common.NewIntValue(9)}))

	s, err := g.NewSession()
	require.NoError(t, err)
	defer s.Close()

	scan, err := planner.NewTableScanNode(s.Cluster(), table, nil)
	require.NoError(t, err)
	st, err := s.Plan(scan)
	require.NoError(t, err)

	exec, err := st.Open(g.NewExecutorContext())
	require.NoError(t, err)
	rows, err := execution.Drain(exec)
	require.NoError(t, err)
	assert.Equal(t, []common.Row{{common.NewIntValue(7)}, {common.NewIntValue(9)}}, rows)
}

func TestNewGoPlan_InvalidConfig(t *testing.T) {
	cat, err := catalog.NewCatalog(&catalog.MemCatalogManager{})
	require.NoError(t, err)
	cfg := session.DefaultConfig()
	cfg.MaxTreeDepth = 0
	_, err = NewGoPlan(cat, cfg, nil, nil)
	assert.True(t, common.IsCode(err, common.InvalidConfigurationError))
}
