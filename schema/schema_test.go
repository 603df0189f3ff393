package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/swrcache/codec"
)

type profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
	)
}

type profileCopy struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type profileV2 struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type profileOptional struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type profileRetyped struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type node struct {
	Value    int     `json:"value"`
	Children []*node `json:"children"`
}

type event struct {
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
	Attrs   map[string]any  `json:"attrs"`
	Hash    [4]byte         `json:"hash"`
	Blob    []byte          `json:"blob"`
}

func TestShapeStableAndStructural(t *testing.T) {
	a := New[profile]()
	assert.Equal(t, a.Shape(), New[profile]().Shape())
	assert.Equal(t, a.Shape(), New[profileCopy]().Shape(), "type names must not matter")
	assert.Equal(t, "json|{email:string;id:string}", a.Shape())
}

func TestShapeChanges(t *testing.T) {
	base := New[profile]().Shape()
	for name, other := range map[string]string{
		"added_field": New[profileV2]().Shape(),
		"optionality": New[profileOptional]().Shape(),
		"field_type":  New[profileRetyped]().Shape(),
		"codec":       New[profile](WithCodec[profile](codec.Msgpack[profile]{})).Shape(),
	} {
		assert.NotEqual(t, base, other, name)
	}
}

func TestShapeRecursiveAndSpecialTypes(t *testing.T) {
	assert.Equal(t, "json|{children:[]*^1;value:int}", New[node]().Shape())
	sh := New[event]().Shape()
	assert.Contains(t, sh, "at:time")
	assert.Contains(t, sh, "payload:custom:json.RawMessage")
	assert.Contains(t, sh, "attrs:map[string]any")
	assert.Contains(t, sh, "hash:[4]uint8")
	assert.Contains(t, sh, "blob:bytes")
}

type Stamp struct {
	By string `json:"by"`
}

type stamped struct {
	ID string `json:"id"`
	*Stamp
}

func TestShapeMarksPointerPromotedFieldsOptional(t *testing.T) {
	assert.Equal(t, "json|{by?:string;id:string}", New[stamped]().Shape())

	v, err := New[stamped]().Decode([]byte(`{"id":"1"}`))
	require.NoError(t, err)
	assert.Nil(t, v.Stamp)
}

func TestDecodeValidates(t *testing.T) {
	s := New[profile]()
	_, err := s.Decode([]byte(`{"id":"","email":"a@b.c"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	v, err := s.Decode([]byte(`{"id":"1","email":"a@b.c"}`))
	require.NoError(t, err)
	assert.Equal(t, "1", v.ID)
}

func TestEncodeValidates(t *testing.T) {
	s := New[profile]()
	_, err := s.Encode(profile{})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestRulesAndChecks(t *testing.T) {
	s := New[string](
		WithRules[string](validation.Required, validation.Length(1, 5)),
		WithCheck(func(v string) error {
			if v == "nope" {
				return errors.New("reserved")
			}
			return nil
		}),
	)
	_, err := s.Decode([]byte(`"toolong"`))
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = s.Decode([]byte(`"nope"`))
	assert.True(t, errors.Is(err, ErrInvalid))
	v, err := s.Decode([]byte(`"ok"`))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestNilPointerNotValidated(t *testing.T) {
	s := New[*profile]()
	v, err := s.Decode([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecodeRejectsShapeMismatch(t *testing.T) {
	_, err := New[profileV2]().Decode([]byte(`{"id":"1","email":"x"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrMissingField))
}
