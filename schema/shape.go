package schema

import (
	"encoding"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/swrcache/codec"
)

var (
	timeType          = reflect.TypeOf(time.Time{})
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func shapeOf[V any](c codec.Codec[V]) string {
	if s, ok := c.(interface{ Shape() string }); ok {
		if sh := s.Shape(); sh != "" {
			return sh
		}
	}
	return describe(reflect.TypeOf((*V)(nil)).Elem(), nil)
}

// describe renders t structurally. stack holds the structs being expanded so
// recursive types become a relative back-reference (^n) instead of looping.
func describe(t reflect.Type, stack []reflect.Type) string {
	if t == timeType {
		return "time"
	}
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface &&
		(t.Implements(jsonMarshalerType) || reflect.PointerTo(t).Implements(jsonMarshalerType) ||
			t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)) {
		return "custom:" + t.String()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + describe(t.Elem(), stack)
	case reflect.Interface:
		return "any"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "bytes"
		}
		return "[]" + describe(t.Elem(), stack)
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + describe(t.Elem(), stack)
	case reflect.Map:
		return "map[" + describe(t.Key(), stack) + "]" + describe(t.Elem(), stack)
	case reflect.Struct:
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == t {
				return "^" + strconv.Itoa(len(stack)-i)
			}
		}
		stack = append(stack, t)
		fields := codec.StructFields(t)
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			name := f.Name
			if f.OmitEmpty || f.Type.Kind() == reflect.Pointer {
				name += "?"
			}
			parts = append(parts, name+":"+describe(f.Type, stack))
		}
		return "{" + strings.Join(parts, ";") + "}"
	default:
		return t.Kind().String()
	}
}
