package common

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
)

type Type int8

const (
	// For uninitialized Values
	DefaultType Type = iota
	IntType
	StringType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "int":
		return IntType, nil
	case "string":
		return StringType, nil
	case "unknown":
		return DefaultType, nil
	}
	return DefaultType, errors.Newf("unknown type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ObjectID is a unique identifier for a table/index/etc. in the catalog.
type ObjectID uint32

const InvalidObjectID ObjectID = 0

// Value represents a literal data item. Values are immutable and safe to share
// between concurrent executions of the same compiled plan.
type Value struct {
	t                Type
	null             bool
	underlyingInt    int64
	underlyingString string
}

// IsNil returns true if the Value is nil and uninitialized. This is NOT to be confused with NULL values.
func (v Value) IsNil() bool {
	return v.t == DefaultType
}

// NewIntValue creates a new integer Value.
func NewIntValue(v int64) Value {
	return Value{t: IntType, underlyingInt: v}
}

// NewStringValue creates a new string Value.
func NewStringValue(v string) Value {
	return Value{t: StringType, underlyingString: v}
}

// NewNullInt creates a NULL integer Value.
func NewNullInt() Value {
	return Value{t: IntType, null: true}
}

// NewNullString creates a NULL string Value.
func NewNullString() Value {
	return Value{t: StringType, null: true}
}

// NewNull creates a NULL of the given type.
func NewNull(t Type) Value {
	return Value{t: t, null: true}
}

// DefaultValue returns the zero value of a type: 0 for integers and the empty string
// for strings.
func DefaultValue(t Type) Value {
	switch t {
	case IntType:
		return NewIntValue(0)
	case StringType:
		return NewStringValue("")
	}
	panic("unknown type")
}

// Type returns the type of the Value.
func (v Value) Type() Type {
	return v.t
}

// IsNull returns true if the Value is NULL.
func (v Value) IsNull() bool {
	return v.null
}

// IntValue returns the underlying (non-NULL) integer.
func (v Value) IntValue() int64 {
	Assert(v.t == IntType, "type mismatch in IntValue")
	Assert(!v.null, "accessing value of NULL int")
	return v.underlyingInt
}

// StringValue returns the underlying (non-NULL) string.
func (v Value) StringValue() string {
	Assert(v.t == StringType, "type mismatch in StringValue")
	Assert(!v.null, "accessing value of NULL string")
	return v.underlyingString
}

// Compare compares two Values.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// NULL is considered less than non-NULL values.
func (v Value) Compare(other Value) int {
	Assert(v.t == other.t, "type mismatch in comparison")

	if v.null && other.null {
		return 0
	}
	if v.null {
		return -1
	}
	if other.null {
		return 1
	}

	switch v.t {
	case IntType:
		if v.underlyingInt < other.underlyingInt {
			return -1
		}
		if v.underlyingInt > other.underlyingInt {
			return 1
		}
		return 0
	case StringType:
		if v.underlyingString < other.underlyingString {
			return -1
		}
		if v.underlyingString > other.underlyingString {
			return 1
		}
		return 0
	}
	panic("unreachable")
}

// Equal reports whether two values are identical: same type, same NULL-ness and, for
// non-NULL values, the same payload. Unlike Compare it never panics.
func (v Value) Equal(other Value) bool {
	if v.t != other.t || v.null != other.null {
		return false
	}
	return v.null || (v.underlyingInt == other.underlyingInt && v.underlyingString == other.underlyingString)
}

// AppendKey appends a self-delimiting binary encoding of v to buf. Two values
// produce the same bytes iff they are identical (including NULL-ness).
func (v Value) AppendKey(buf []byte) []byte {
	buf = append(buf, byte(v.t))
	if v.null {
		return append(buf, 1)
	}
	buf = append(buf, 0)
	switch v.t {
	case IntType:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.underlyingInt))
	case StringType:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.underlyingString)))
		buf = append(buf, v.underlyingString...)
	}
	return buf
}

func (v Value) String() string {
	if v.null {
		return "NULL"
	}
	switch v.t {
	case IntType:
		return strconv.FormatInt(v.underlyingInt, 10)
	case StringType:
		return fmt.Sprintf("'%s'", v.underlyingString)
	}
	return "<nil>"
}

type valueJSON struct {
	Type   Type    `json:"type"`
	Null   bool    `json:"null,omitempty"`
	Int    *int64  `json:"int,omitempty"`
	String *string `json:"str,omitempty"`
}

// MarshalJSON serializes the value for stream descriptions.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Type: v.t, Null: v.null}
	if !v.null {
		switch v.t {
		case IntType:
			i := v.underlyingInt
			out.Int = &i
		case StringType:
			s := v.underlyingString
			out.String = &s
		}
	}
	return json.Marshal(out)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = Value{t: in.Type, null: in.Null}
	if in.Null {
		return nil
	}
	switch in.Type {
	case IntType:
		if in.Int == nil {
			return errors.New("int value without payload")
		}
		v.underlyingInt = *in.Int
	case StringType:
		if in.String == nil {
			return errors.New("string value without payload")
		}
		v.underlyingString = *in.String
	}
	return nil
}

// Row is a positional sequence of values, the unit exchanged between pull operators.
type Row []Value

// GetValue retrieves the value at index i.
func (r Row) GetValue(i int) Value {
	return r[i]
}

// NumColumns returns the number of fields in the row.
func (r Row) NumColumns() int {
	return len(r)
}

// Extend returns a NEW Row consisting of the current row's fields followed by other.
func (r Row) Extend(other Row) Row {
	out := make(Row, 0, len(r)+len(other))
	out = append(out, r...)
	return append(out, other...)
}

// KeyHash hashes the values at the given positions.
func (r Row) KeyHash(fields []int) uint64 {
	var buf []byte
	for _, f := range fields {
		buf = r[f].AppendKey(buf)
	}
	return Hash(buf)
}

// KeyEquals reports whether two rows agree on the given positions.
func (r Row) KeyEquals(other Row, fields []int) bool {
	for _, f := range fields {
		if !r[f].Equal(other[f]) {
			return false
		}
	}
	return true
}
