package wire

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/swrcache/codec"
)

// ErrCorrupt is returned for envelopes that cannot be parsed or lack a field.
var ErrCorrupt = errors.New("swrcache: corrupt entry")

// Envelope layout, identical in every format:
//
//	{"v": <payload>, "t": <computedAt, epoch milliseconds>}
//
// The payload is embedded as a nested document, not as an opaque string.
type jsonEnvelope struct {
	V json.RawMessage `json:"v"`
	T *int64          `json:"t"`
}

type cborEnvelope struct {
	V cbor.RawMessage `cbor:"v"`
	T *int64          `cbor:"t"`
}

type msgpackEnvelope struct {
	V msgpack.RawMessage `msgpack:"v"`
	T *int64             `msgpack:"t"`
}

// Encode frames payload with its computation time.
func Encode(f codec.Format, payload []byte, computedAtMs int64) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errors.Wrap(ErrCorrupt, "empty payload")
	}
	t := computedAtMs
	switch f {
	case codec.FormatJSON:
		return json.Marshal(jsonEnvelope{V: payload, T: &t})
	case codec.FormatCBOR:
		return cbor.Marshal(cborEnvelope{V: payload, T: &t})
	case codec.FormatMsgpack:
		return msgpack.Marshal(msgpackEnvelope{V: payload, T: &t})
	default:
		return nil, errors.Newf("swrcache: unsupported format %d", f)
	}
}

// Decode splits an envelope into payload and computation time.
func Decode(f codec.Format, raw []byte) (payload []byte, computedAtMs int64, err error) {
	var (
		v []byte
		t *int64
	)
	switch f {
	case codec.FormatJSON:
		var e jsonEnvelope
		err = json.Unmarshal(raw, &e)
		v, t = e.V, e.T
	case codec.FormatCBOR:
		var e cborEnvelope
		err = cbor.Unmarshal(raw, &e)
		v, t = e.V, e.T
	case codec.FormatMsgpack:
		var e msgpackEnvelope
		err = msgpack.Unmarshal(raw, &e)
		v, t = e.V, e.T
	default:
		return nil, 0, errors.Newf("swrcache: unsupported format %d", f)
	}
	if err != nil {
		return nil, 0, errors.Wrapf(ErrCorrupt, "%s envelope: %v", f, err)
	}
	if len(v) == 0 || t == nil {
		return nil, 0, errors.Wrapf(ErrCorrupt, "%s envelope: missing v or t", f)
	}
	return v, *t, nil
}
