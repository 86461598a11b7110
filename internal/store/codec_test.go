package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	id := uuid.MustParse("0b5c2f2e-8a7a-4b7e-9d55-6a4e2a0f7c11")
	stamp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  any
		typ  reflect.Type
		want any
	}{
		{"bool from integer", int64(1), reflect.TypeFor[bool](), true},
		{"uuid from text", id.String(), reflect.TypeFor[uuid.UUID](), id},
		{"uuid from bytes", []byte(id.String()), reflect.TypeFor[uuid.UUID](), id},
		{"time from text", "2024-03-01T12:30:00Z", reflect.TypeFor[time.Time](), stamp},
		{"duration", int64(90), reflect.TypeFor[time.Duration](), time.Duration(90)},
		{"float from integer", int64(2), reflect.TypeFor[float64](), 2.0},
		{"null pointer", nil, reflect.TypeFor[*string](), (*string)(nil)},
		{"json map", `{"a":1}`, reflect.TypeFor[map[string]int](), map[string]int{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(tt.raw, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := decode(int64(300), reflect.TypeFor[int8]())
	assert.ErrorIs(t, err, ErrScan)

	_, err = decode(int64(-1), reflect.TypeFor[uint]())
	assert.ErrorIs(t, err, ErrScan)

	_, err = decode("soon", reflect.TypeFor[time.Time]())
	assert.ErrorIs(t, err, ErrScan)

	_, err = decode(int64(1), reflect.TypeFor[chan int]())
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestEncode(t *testing.T) {
	id := ulid.Make()

	got, err := encode(id, reflect.TypeFor[ulid.ULID]())
	require.NoError(t, err)
	assert.Equal(t, id.String(), got)

	back, err := decode(got, reflect.TypeFor[ulid.ULID]())
	require.NoError(t, err)
	assert.Equal(t, id, back.Interface())

	got, err = encode((*int)(nil), reflect.TypeFor[*int]())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = encode([]string{"a"}, reflect.TypeFor[[]string]())
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, got)
}
