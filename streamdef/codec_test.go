package streamdef

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/goplan/common"
)

func makeCodecPlan() *StreamDef {
	five := common.NewIntValue(5)
	values := &StreamDef{
		Kind:   KindValues,
		Fields: []FieldDef{{Name: "id", Type: common.IntType}, {Name: "name", Type: common.StringType}},
		Params: map[string]string{ParamRowCount: "2"},
		Rows: []common.Row{
			{common.NewIntValue(1), common.NewStringValue("alice")},
			{common.NewIntValue(7), common.NewNullString()},
		},
		Inputs: []*StreamDef{},
	}
	return &StreamDef{
		Kind:   KindFilter,
		Fields: values.Fields,
		Exprs: []ExprDef{{
			Op:      ExprCompare,
			Variant: ">",
			Type:    common.IntType,
			Args: []ExprDef{
				{Op: ExprColumn, Type: common.IntType, Field: 0, Name: "id"},
				{Op: ExprConst, Type: common.IntType, Value: &five},
			},
		}},
		Inputs: []*StreamDef{values},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	empty := &StreamDef{
		Kind:   KindValues,
		Fields: []FieldDef{{Name: "x", Type: common.IntType}},
		Params: map[string]string{ParamRowCount: "0"},
		Rows:   []common.Row{},
		Inputs: []*StreamDef{},
	}
	tests := []struct {
		name string
		plan *StreamDef
	}{
		{"filter over values", makeCodecPlan()},
		{"zero rows", empty},
		{"limit over zero rows", &StreamDef{
			Kind:   KindLimit,
			Fields: empty.Fields,
			Params: map[string]string{ParamLimit: "3"},
			Inputs: []*StreamDef{empty},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.plan)
			require.NoError(t, err)
			assert.Equal(t, FormatVersion, data[0])

			decoded, err := Decode(data)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.plan, decoded); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_RejectsUnknownVersion(t *testing.T) {
	data, err := Encode(makeCodecPlan())
	require.NoError(t, err)

	data[0] = FormatVersion + 1
	_, err = Decode(data)
	assert.Error(t, err)

	_, err = Decode(nil)
	assert.Error(t, err)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestStreamDef_Params(t *testing.T) {
	d := &StreamDef{Kind: KindTableScan, Params: map[string]string{
		ParamRowCount: "12",
		ParamColumns:  FormatIntList([]int{3, 0, 2}),
		ParamLimit:    "ten",
	}}

	n, err := d.IntParam(ParamRowCount)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	cols, err := d.IntListParam(ParamColumns)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 2}, cols)

	_, err = d.IntParam(ParamLimit)
	assert.Error(t, err)
	_, err = d.IntParam(ParamTableOid)
	assert.Error(t, err)

	missing, err := d.IntListParam(ParamDirections)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStreamDef_String(t *testing.T) {
	out := makeCodecPlan().String()
	assert.Contains(t, out, "Filter (id > 5)")
	assert.Contains(t, out, "Values (rowCount=2)")
}
