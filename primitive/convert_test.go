package primitive

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/options"
)

type color int

const (
	red color = iota
	green
)

func (c color) String() string {
	switch c {
	case red:
		return "red"
	case green:
		return "green"
	default:
		return "color(" + strconv.Itoa(int(c)) + ")"
	}
}

func (c *color) UnmarshalText(b []byte) error {
	switch string(b) {
	case "red":
		*c = red
	case "green":
		*c = green
	default:
		return assert.AnError
	}

	return nil
}

type label string

func convertTo[D any](t *testing.T, enabled options.CategoryEnum, src any) (D, error) {
	t.Helper()

	var zero D

	fn, _, ok := Lookup(enabled, reflect.TypeOf(src), reflect.TypeFor[D]())
	require.True(t, ok, "no coercion from %T to %T", src, zero)

	out, err := fn(reflect.ValueOf(src), reflect.TypeFor[D]())
	if err != nil {
		return zero, err
	}

	return out.Interface().(D), nil
}

func TestLookup_Disabled(t *testing.T) {
	_, _, ok := Lookup(options.CategoryNone, reflect.TypeFor[int](), reflect.TypeFor[string]())
	assert.False(t, ok)

	_, _, ok = Lookup(options.CategoryAll, reflect.TypeFor[struct{}](), reflect.TypeFor[string]())
	assert.False(t, ok)

	type plain int
	_, _, ok = Lookup(options.CategoryAll, reflect.TypeFor[string](), reflect.TypeFor[plain]())
	assert.False(t, ok, "named int without UnmarshalText cannot be parsed")
}

func TestNumbers(t *testing.T) {
	i64, err := convertTo[int64](t, options.CategorySafeNumber, int8(-5))
	require.NoError(t, err)
	assert.Equal(t, int64(-5), i64)

	u8, err := convertTo[uint8](t, options.CategoryUnsafeNumber, 200)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), u8)

	_, err = convertTo[uint8](t, options.CategoryUnsafeNumber, 256)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = convertTo[int8](t, options.CategoryUnsafeNumber, -129)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = convertTo[uint32](t, options.CategoryUnsafeNumber, -1)
	require.ErrorIs(t, err, ErrOutOfRange)

	i16, err := convertTo[int16](t, options.CategoryUnsafeNumber, 12.75)
	require.NoError(t, err)
	assert.Equal(t, int16(12), i16)
}

func TestTextNumber(t *testing.T) {
	s, err := convertTo[string](t, options.CategoryTextNumber, 90)
	require.NoError(t, err)
	assert.Equal(t, "90", s)

	s, err = convertTo[string](t, options.CategoryTextNumber, float32(1.5))
	require.NoError(t, err)
	assert.Equal(t, "1.5", s)

	n, err := convertTo[uint16](t, options.CategoryTextNumber, " 42 ")
	require.NoError(t, err)
	assert.Equal(t, uint16(42), n)

	_, err = convertTo[int8](t, options.CategoryTextNumber, "300")
	require.ErrorIs(t, err, ErrInvalidText)
}

func TestBools(t *testing.T) {
	b, err := convertTo[bool](t, options.CategoryNumericBool, 1)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = convertTo[bool](t, options.CategoryNumericBool, 2)
	require.ErrorIs(t, err, ErrOutOfRange)

	n, err := convertTo[uint8](t, options.CategoryNumericBool, true)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), n)

	b, err = convertTo[bool](t, options.CategoryTextualBool, "Off")
	require.NoError(t, err)
	assert.False(t, b)

	_, err = convertTo[bool](t, options.CategoryTextualBool, "maybe")
	require.ErrorIs(t, err, ErrInvalidText)
}

func TestTimeAndDuration(t *testing.T) {
	moment := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	s, err := convertTo[string](t, options.CategoryDatetime, moment)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:30:00Z", s)

	back, err := convertTo[time.Time](t, options.CategoryDatetime, s)
	require.NoError(t, err)
	assert.True(t, moment.Equal(back))

	unix, err := convertTo[int64](t, options.CategoryTimestamp, moment)
	require.NoError(t, err)
	assert.Equal(t, moment.Unix(), unix)

	_, err = convertTo[int8](t, options.CategoryTimestamp, moment)
	require.ErrorIs(t, err, ErrOutOfRange)

	fromUnix, err := convertTo[time.Time](t, options.CategoryTimestamp, unix)
	require.NoError(t, err)
	assert.True(t, moment.Equal(fromUnix))

	text, err := convertTo[string](t, options.CategoryDuration, 2*time.Hour+45*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "2h45m0s", text)

	d, err := convertTo[time.Duration](t, options.CategoryDuration, "90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	ns, err := convertTo[int64](t, options.CategoryNanoseconds, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), ns)

	secs, err := convertTo[float64](t, options.CategorySeconds, 90*time.Second)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, secs, 1e-9)

	d, err = convertTo[time.Duration](t, options.CategorySeconds, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)
}

func TestEnumString(t *testing.T) {
	s, err := convertTo[string](t, options.CategoryEnumString, green)
	require.NoError(t, err)
	assert.Equal(t, "green", s)

	c, err := convertTo[color](t, options.CategoryEnumString, "red")
	require.NoError(t, err)
	assert.Equal(t, red, c)

	_, err = convertTo[color](t, options.CategoryEnumString, "blue")
	require.ErrorIs(t, err, ErrInvalidText)

	l, err := convertTo[label](t, options.CategoryEnumString, "x")
	require.NoError(t, err)
	assert.Equal(t, label("x"), l)

	id := uuid.MustParse("0190c2a4-6f5e-7c3a-9a41-8f0b7e2d1c55")
	s, err = convertTo[string](t, options.CategoryEnumString, id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), s)

	parsed, err := convertTo[uuid.UUID](t, options.CategoryEnumString, s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	u := ulid.Make()
	us, err := convertTo[string](t, options.CategoryEnumString, u)
	require.NoError(t, err)

	back, err := convertTo[ulid.ULID](t, options.CategoryEnumString, us)
	require.NoError(t, err)
	assert.Equal(t, u, back)
}
