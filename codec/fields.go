package codec

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrMissingField is returned by strict decoders when a required field is absent.
var ErrMissingField = errors.New("codec: missing required field")

// Field describes one wire-visible struct field, named by its json tag.
type Field struct {
	Name      string
	Type      reflect.Type
	OmitEmpty bool
}

var fieldCache sync.Map // reflect.Type -> []Field

// StructFields returns the wire fields of t (or *t) sorted by name, following
// encoding/json naming rules: `json:"-"` is skipped, untagged anonymous structs
// are flattened. Non-struct types yield nil.
func StructFields(t reflect.Type) []Field {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	if v, ok := fieldCache.Load(t); ok {
		return v.([]Field)
	}
	byName := make(map[string]Field)
	collectFields(t, byName, 0, map[reflect.Type]bool{})
	out := make([]Field, 0, len(byName))
	for _, f := range byName {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	fieldCache.Store(t, out)
	return out
}

func collectFields(t reflect.Type, into map[string]Field, depth int, visiting map[reflect.Type]bool) {
	if visiting[t] {
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	depths := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		ft := sf.Type

		if sf.Anonymous && name == "" {
			et := ft
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				nested := make(map[string]Field)
				collectFields(et, nested, depth+1, visiting)
				for n, f := range nested {
					// encoding/json omits these whenever the pointer is nil
					if ft.Kind() == reflect.Pointer {
						f.OmitEmpty = true
					}
					if _, taken := into[n]; !taken {
						into[n] = f
						depths[n] = depth + 1
					}
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if d, taken := depths[name]; taken && d <= depth {
			continue
		}
		into[name] = Field{
			Name:      name,
			Type:      ft,
			OmitEmpty: hasOpt(opts, "omitempty") || hasOpt(opts, "omitzero"),
		}
		depths[name] = depth
	}
}

func hasOpt(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}

// requiredFields returns the fields a strict decoder must find in V's
// top-level map. It is nil when V or any pointer level of it implements one
// of custom, since such types pick their own wire form.
func requiredFields[V any](custom ...reflect.Type) []Field {
	t := typeOf[V]()
	for at := t; ; at = at.Elem() {
		for _, it := range custom {
			if at.Implements(it) || reflect.PointerTo(at).Implements(it) {
				return nil
			}
		}
		if at.Kind() != reflect.Pointer {
			break
		}
	}
	return StructFields(t)
}

// checkRequired verifies every non-omitempty field is present.
func checkRequired(fields []Field, present func(name string) bool) error {
	var missing []string
	for _, f := range fields {
		if f.OmitEmpty {
			continue
		}
		if !present(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrMissingField, "%s", strings.Join(missing, ", "))
	}
	return nil
}

// foldPresent reports whether top has key name, ignoring case the way
// encoding/json and fxamacker/cbor match field names.
func foldPresent[M ~map[string]R, R any](top M, name string) bool {
	if _, ok := top[name]; ok {
		return true
	}
	for k := range top {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func ifaceOf[I any]() reflect.Type {
	return reflect.TypeOf((*I)(nil)).Elem()
}

func typeOf[V any]() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}
