package codec

// Format identifies the envelope encoding a codec's payload is embedded in.
// The payload produced by Encode must be a valid document of that format.
type Format uint8

const (
	FormatJSON Format = iota
	FormatCBOR
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// Codec encodes/decodes values V to []byte for storage.
// Decode must be strict: payloads that do not match V's shape are errors,
// never silently zero-filled.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
	Format() Format
}
