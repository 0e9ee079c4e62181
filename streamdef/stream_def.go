// Package streamdef defines the engine-neutral description of a compiled physical plan.
//
// A StreamDef describes one pull-based operator: its kind, its output fields, static
// parameters, inline literal rows, scalar expressions, and the already-compiled
// descriptions of its inputs. It is a plain nested record so that it can be written to
// the wire or to an on-disk plan cache, and it is the one artifact whose format must
// stay stable across versions of the execution engine (see FormatVersion).
package streamdef

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xlab/treeprint"

	"mit.edu/dsg/goplan/common"
)

// Operator kinds understood by the pull execution engine.
const (
	KindOneRow         = "OneRow"
	KindValues         = "Values"
	KindTableScan      = "TableScan"
	KindFilter         = "Filter"
	KindProjection     = "Projection"
	KindLimit          = "Limit"
	KindSort           = "Sort"
	KindMaterialize    = "Materialize"
	KindNestedLoopJoin = "NestedLoopJoin"
)

// Well-known parameter keys.
const (
	ParamRowCount   = "rowCount"
	ParamTableOid   = "tableOid"
	ParamTableName  = "table"
	ParamColumns    = "columns"
	ParamLimit      = "limit"
	ParamDirections = "directions"
	ParamResourceID = "resourceId"
)

// FieldDef describes one output field of an operator.
type FieldDef struct {
	Name string      `json:"name"`
	Type common.Type `json:"type"`
}

// StreamDef is the serializable description of one physical operator.
type StreamDef struct {
	Kind   string            `json:"kind"`
	Fields []FieldDef        `json:"fields"`
	Params map[string]string `json:"params,omitempty"`
	Rows   []common.Row      `json:"rows"`
	Exprs  []ExprDef         `json:"exprs,omitempty"`
	Inputs []*StreamDef      `json:"inputs"`
}

// Param returns a static parameter.
func (d *StreamDef) Param(key string) (string, bool) {
	v, ok := d.Params[key]
	return v, ok
}

// IntParam returns a static parameter parsed as an integer.
func (d *StreamDef) IntParam(key string) (int64, error) {
	v, ok := d.Params[key]
	if !ok {
		return 0, errors.Newf("%s: missing parameter %q", d.Kind, key)
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: parameter %q", d.Kind, key)
	}
	return i, nil
}

// IntListParam returns a comma-separated integer list parameter. A missing parameter
// yields nil.
func (d *StreamDef) IntListParam(key string) ([]int, error) {
	v, ok := d.Params[key]
	if !ok || v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: parameter %q", d.Kind, key)
		}
		out[i] = n
	}
	return out, nil
}

// FormatIntList is the inverse of IntListParam.
func FormatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// FieldTypes returns the types of the output fields.
func (d *StreamDef) FieldTypes() []common.Type {
	out := make([]common.Type, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = f.Type
	}
	return out
}

// Walk visits d and its inputs in pre-order.
func (d *StreamDef) Walk(visit func(*StreamDef)) {
	visit(d)
	for _, in := range d.Inputs {
		in.Walk(visit)
	}
}

func (d *StreamDef) String() string {
	return d.asTree(nil).String()
}

func (d *StreamDef) describe() string {
	var sb strings.Builder
	sb.WriteString(d.Kind)
	if len(d.Params) > 0 {
		keys := make([]string, 0, len(d.Params))
		for k := range d.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%s", k, d.Params[k])
		}
		sb.WriteString(")")
	}
	for _, e := range d.Exprs {
		sb.WriteString(" ")
		sb.WriteString(e.String())
	}
	return sb.String()
}

func (d *StreamDef) asTree(root treeprint.Tree) treeprint.Tree {
	var branch treeprint.Tree
	if root == nil {
		branch = treeprint.NewWithRoot(d.describe())
	} else {
		branch = root.AddBranch(d.describe())
	}
	for _, in := range d.Inputs {
		in.asTree(branch)
	}
	return branch
}
