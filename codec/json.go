package codec

import (
	"bytes"
	"encoding"
	"encoding/json"
	"io"
	"reflect"

	"github.com/cockroachdb/errors"
)

// JSON is a strict encoding/json codec. The zero value is ready to use.
// Decode rejects unknown fields, trailing data and objects missing a
// required (non-omitempty) field of V. Field names match case-insensitively,
// as in encoding/json. Types with their own JSON or text marshaling skip
// the required-field check.
type JSON[V any] struct{}

var jsonCustom = []reflect.Type{
	ifaceOf[json.Marshaler](),
	ifaceOf[json.Unmarshaler](),
	ifaceOf[encoding.TextMarshaler](),
	ifaceOf[encoding.TextUnmarshaler](),
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Format() Format { return FormatJSON }

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if fields := requiredFields[V](jsonCustom...); len(fields) > 0 {
		var top map[string]json.RawMessage
		if err := json.Unmarshal(b, &top); err != nil {
			return v, err
		}
		if top != nil {
			if err := checkRequired(fields, func(n string) bool { return foldPresent(top, n) }); err != nil {
				return v, err
			}
		}
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if _, err := dec.Token(); err != io.EOF {
		var zero V
		return zero, errors.New("codec: trailing data after json value")
	}
	return v, nil
}
