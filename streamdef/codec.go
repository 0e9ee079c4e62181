package streamdef

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// FormatVersion prefixes every encoded plan. Bump it whenever a change to StreamDef,
// ExprDef or a parameter key would make old engines misread new plans.
const FormatVersion byte = 1

// EncodeAll/DecodeAll are safe for concurrent use on a shared encoder/decoder.
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// MarshalJSON renders the plan as indented JSON. It's used for diagnostics.
func MarshalJSON(d *StreamDef) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Encode serializes d into the versioned binary form used by plan caches.
func Encode(d *StreamDef) ([]byte, error) {
	if d == nil {
		return nil, errors.New("cannot encode a nil stream definition")
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "marshal stream definition")
	}
	out := make([]byte, 1, 1+len(raw)/2)
	out[0] = FormatVersion
	return encoder.EncodeAll(raw, out), nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*StreamDef, error) {
	if len(data) == 0 {
		return nil, errors.New("empty stream definition")
	}
	if data[0] != FormatVersion {
		return nil, errors.Newf("unsupported stream definition format %d (want %d)", data[0], FormatVersion)
	}
	raw, err := decoder.DecodeAll(data[1:], nil)
	if err != nil {
		return nil, errors.Wrap(err, "decompress stream definition")
	}
	var d StreamDef
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, "unmarshal stream definition")
	}
	return &d, nil
}
