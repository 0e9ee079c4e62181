package pull

import (
	"fmt"
	"strconv"

	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/metadata"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/streamdef"
)

// OneRowNode produces a single row [0].
type OneRowNode struct {
	base
}

func NewOneRowNode(cluster planner.ClusterID) *OneRowNode {
	return &OneRowNode{newBase(KindOneRow, cluster, planner.OneRowType(), nil)}
}

func (n *OneRowNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *OneRowNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &OneRowNode{n.rebind(cluster, children)}
}

func (n *OneRowNode) String() string {
	return "PullOneRow"
}

func (n *OneRowNode) SelfCost(*metadata.Registry) planner.Cost {
	return planner.TinyCost
}

func (n *OneRowNode) ToStreamDef(*CompileContext) (*streamdef.StreamDef, error) {
	return &streamdef.StreamDef{
		Kind:   streamdef.KindOneRow,
		Fields: fieldDefs(n.RowType()),
		Params: map[string]string{streamdef.ParamRowCount: "1"},
		Rows:   []common.Row{{planner.OneRowValue}},
		Inputs: []*streamdef.StreamDef{},
	}, nil
}

// ValuesNode produces a fixed set of literal rows.
type ValuesNode struct {
	base
	rows []common.Row
}

// NewValuesNode builds the node from rows already validated against rowType.
func NewValuesNode(cluster planner.ClusterID, rowType planner.RowType, rows []common.Row) *ValuesNode {
	return &ValuesNode{base: newBase(KindValues, cluster, rowType, nil), rows: copyRows(rows)}
}

func (n *ValuesNode) Rows() []common.Row {
	return n.rows
}

func (n *ValuesNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *ValuesNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &ValuesNode{base: n.rebind(cluster, children), rows: n.rows}
}

func (n *ValuesNode) String() string {
	return fmt.Sprintf("PullValues: %d rows %s", len(n.rows), n.RowType())
}

func (n *ValuesNode) SelfCost(*metadata.Registry) planner.Cost {
	return planner.TinyCost
}

func (n *ValuesNode) ToStreamDef(*CompileContext) (*streamdef.StreamDef, error) {
	return &streamdef.StreamDef{
		Kind:   streamdef.KindValues,
		Fields: fieldDefs(n.RowType()),
		Params: map[string]string{streamdef.ParamRowCount: strconv.Itoa(len(n.rows))},
		Rows:   copyRows(n.rows),
		Inputs: []*streamdef.StreamDef{},
	}, nil
}

// TableScanNode reads a catalog table through a scan cursor reserved at conversion time.
type TableScanNode struct {
	base
	Table    *catalog.Table
	columns  []int
	Resource planner.PlaceholderID
}

func NewTableScanNode(cluster planner.ClusterID, rowType planner.RowType, table *catalog.Table, columns []int, resource planner.PlaceholderID) *TableScanNode {
	return &TableScanNode{
		base:     newBase(KindTableScan, cluster, rowType, nil),
		Table:    table,
		columns:  columns,
		Resource: resource,
	}
}

// Columns returns the projected column ordinals, or nil for a full-width scan.
func (n *TableScanNode) Columns() []int {
	return n.columns
}

func (n *TableScanNode) ColumnSet() catalog.ColumnSet {
	return n.Table
}

func (n *TableScanNode) Mapper() catalog.ColumnMapper {
	if n.columns == nil {
		return catalog.IdentityMapper{}
	}
	return catalog.ProjectionMapper{Columns: n.columns}
}

func (n *TableScanNode) WithChildren(children []planner.RelNode) planner.RelNode {
	return n.Copy(n.Cluster(), children)
}

func (n *TableScanNode) Copy(cluster planner.ClusterID, children []planner.RelNode) planner.RelNode {
	return &TableScanNode{base: n.rebind(cluster, children), Table: n.Table, columns: n.columns, Resource: n.Resource}
}

func (n *TableScanNode) String() string {
	return fmt.Sprintf("PullTableScan: %s(%d) %s", n.Table.Name, n.Table.Oid, n.Resource)
}

func (n *TableScanNode) SelfCost(reg *metadata.Registry) planner.Cost {
	rows, ok := metadata.RowCount(reg, n)
	if !ok {
		rows = metadata.DefaultTableRows
	}
	return planner.Cost{Rows: rows, CPU: rows, IO: rows}
}

// ToStreamDef emits the scan with its projected columns. Full-width scans list every
// column so that the executor never has to consult the catalog.
func (n *TableScanNode) ToStreamDef(ctx *CompileContext) (*streamdef.StreamDef, error) {
	columns := n.columns
	if columns == nil {
		columns = make([]int, n.Table.NumColumns())
		for i := range columns {
			columns[i] = i
		}
	}
	return &streamdef.StreamDef{
		Kind:   streamdef.KindTableScan,
		Fields: fieldDefs(n.RowType()),
		Params: map[string]string{
			streamdef.ParamTableOid:   strconv.FormatUint(uint64(n.Table.Oid), 10),
			streamdef.ParamTableName:  n.Table.Name,
			streamdef.ParamColumns:    streamdef.FormatIntList(columns),
			streamdef.ParamResourceID: strconv.Itoa(ctx.Resolve(n.Resource)),
		},
		Inputs: []*streamdef.StreamDef{},
	}, nil
}
