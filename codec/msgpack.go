package codec

import (
	"bytes"
	"encoding"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Struct fields are named by their json tags so the same type produces the
// same field set under every codec. Decoding rejects unknown fields and maps
// missing a required field of V. Types with their own msgpack, binary or
// text marshaling skip the required-field check.
type Msgpack[V any] struct{}

var msgpackCustom = []reflect.Type{
	ifaceOf[msgpack.CustomEncoder](),
	ifaceOf[msgpack.CustomDecoder](),
	ifaceOf[msgpack.Marshaler](),
	ifaceOf[msgpack.Unmarshaler](),
	ifaceOf[encoding.BinaryMarshaler](),
	ifaceOf[encoding.BinaryUnmarshaler](),
	ifaceOf[encoding.TextMarshaler](),
	ifaceOf[encoding.TextUnmarshaler](),
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (Msgpack[V]) Format() Format { return FormatMsgpack }

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	if fields := requiredFields[V](msgpackCustom...); len(fields) > 0 {
		var top map[string]msgpack.RawMessage
		if err := msgpack.Unmarshal(b, &top); err != nil {
			return v, err
		}
		if top != nil {
			if err := checkRequired(fields, func(n string) bool { _, ok := top[n]; return ok }); err != nil {
				return v, err
			}
		}
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	dec.DisallowUnknownFields(true)
	err := dec.Decode(&v)
	return v, err
}
