// Package schema binds a value type to its wire codec, validation rules and a
// canonical shape description.
//
// The shape is what content-addressed versioning hashes: two schemas whose
// types have the same field set, field types and optionality under the same
// codec format produce the same shape, regardless of Go type names.
//
//	type User struct {
//	    ID    string  `json:"id"`
//	    Email *string `json:"email"`
//	}
//
//	func (u User) Validate() error {
//	    return validation.ValidateStruct(&u, validation.Field(&u.ID, validation.Required))
//	}
//
//	users := schema.New[User]() // JSON codec; User.Validate runs on every encode/decode
package schema

import (
	"reflect"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/unkn0wn-root/swrcache/codec"
)

// ErrInvalid marks values rejected by validation rules.
var ErrInvalid = errors.New("schema: validation failed")

type Schema[V any] struct {
	codec  codec.Codec[V]
	rules  []validation.Rule
	checks []func(V) error
	shape  string
}

type Option[V any] func(*Schema[V])

// WithCodec replaces the default strict JSON codec.
func WithCodec[V any](c codec.Codec[V]) Option[V] {
	return func(s *Schema[V]) { s.codec = c }
}

// WithRules adds ozzo-validation rules applied to the whole value.
func WithRules[V any](rules ...validation.Rule) Option[V] {
	return func(s *Schema[V]) { s.rules = append(s.rules, rules...) }
}

// WithCheck adds a typed validation function.
func WithCheck[V any](fn func(V) error) Option[V] {
	return func(s *Schema[V]) { s.checks = append(s.checks, fn) }
}

func New[V any](opts ...Option[V]) *Schema[V] {
	s := &Schema[V]{codec: codec.JSON[V]{}}
	for _, o := range opts {
		o(s)
	}
	s.shape = s.codec.Format().String() + "|" + shapeOf[V](s.codec)
	return s
}

func (s *Schema[V]) Format() codec.Format { return s.codec.Format() }

// Shape returns the canonical description hashed for auto-versioning.
func (s *Schema[V]) Shape() string { return s.shape }

// Validate runs the rules, the typed checks and V's own Validate method
// (ozzo validation.Validatable) if it has one.
func (s *Schema[V]) Validate(v V) error {
	for _, r := range s.rules {
		if err := r.Validate(v); err != nil {
			return errors.Mark(err, ErrInvalid)
		}
	}
	for _, fn := range s.checks {
		if err := fn(v); err != nil {
			return errors.Mark(err, ErrInvalid)
		}
	}
	if vv, ok := validatable(&v); ok {
		if err := vv.Validate(); err != nil {
			return errors.Mark(err, ErrInvalid)
		}
	}
	return nil
}

func (s *Schema[V]) Encode(v V) ([]byte, error) {
	if err := s.Validate(v); err != nil {
		return nil, err
	}
	return s.codec.Encode(v)
}

func (s *Schema[V]) Decode(b []byte) (V, error) {
	v, err := s.codec.Decode(b)
	if err != nil {
		var zero V
		return zero, err
	}
	if err := s.Validate(v); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// validatable finds a Validate method on *p's value or pointer receiver.
// Nil pointers are not validated.
func validatable[V any](p *V) (validation.Validatable, bool) {
	rv := reflect.ValueOf(*p)
	if rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil, false
	}
	if vv, ok := any(*p).(validation.Validatable); ok {
		return vv, true
	}
	if vv, ok := any(p).(validation.Validatable); ok {
		return vv, true
	}
	return nil, false
}
