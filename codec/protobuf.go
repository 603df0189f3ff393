package codec

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Protobuf stores messages as protojson so they embed in the JSON envelope.
// Unknown fields are rejected on decode.
type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.User { return &mypb.User{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Format() Format { return FormatJSON }

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return protojson.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := protojson.Unmarshal(b, m)
	return m, err
}

// Shape describes the message descriptor: fields sorted by number with
// name, kind and cardinality. Nested messages are referenced by full name.
func (c Protobuf[T]) Shape() string {
	md := c.new().ProtoReflect().Descriptor()
	fields := md.Fields()
	parts := make([]string, 0, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		f := fields.Get(i)
		kind := f.Kind().String()
		if f.Kind() == protoreflect.MessageKind || f.Kind() == protoreflect.GroupKind {
			kind = string(f.Message().FullName())
		}
		opt := ""
		if f.HasPresence() {
			opt = "?"
		}
		parts = append(parts, fmt.Sprintf("%05d:%s%s:%s:%s", f.Number(), f.Name(), opt, f.Cardinality(), kind))
	}
	sort.Strings(parts)
	return "proto{" + strings.Join(parts, ";") + "}"
}
