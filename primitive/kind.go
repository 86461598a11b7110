// Package primitive classifies scalar Go types into kinds and performs the
// opt-in coercions between them.
package primitive

import (
	"encoding"
	"reflect"
	"strconv"
	"time"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindPrimitiveEnum // named integer or string type
	KindText          // type with MarshalText and UnmarshalText, e.g. uuid.UUID

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// numberInfo describes the representation of a number kind.
type numberInfo struct {
	bits   int
	float  bool
	signed bool
}

var numbers = map[KindEnum]numberInfo{
	KindInt:     {bits: strconv.IntSize, signed: true},
	KindInt8:    {bits: 8, signed: true},
	KindInt16:   {bits: 16, signed: true},
	KindInt32:   {bits: 32, signed: true},
	KindInt64:   {bits: 64, signed: true},
	KindUint:    {bits: strconv.IntSize},
	KindUint8:   {bits: 8},
	KindUint16:  {bits: 16},
	KindUint32:  {bits: 32},
	KindUint64:  {bits: 64},
	KindFloat32: {bits: 32, float: true, signed: true},
	KindFloat64: {bits: 64, float: true, signed: true},
}

var kindByType = map[reflect.Type]KindEnum{
	reflect.TypeFor[int]():           KindInt,
	reflect.TypeFor[int8]():          KindInt8,
	reflect.TypeFor[int16]():         KindInt16,
	reflect.TypeFor[int32]():         KindInt32,
	reflect.TypeFor[int64]():         KindInt64,
	reflect.TypeFor[uint]():          KindUint,
	reflect.TypeFor[uint8]():         KindUint8,
	reflect.TypeFor[uint16]():        KindUint16,
	reflect.TypeFor[uint32]():        KindUint32,
	reflect.TypeFor[uint64]():        KindUint64,
	reflect.TypeFor[float32]():       KindFloat32,
	reflect.TypeFor[float64]():       KindFloat64,
	reflect.TypeFor[bool]():          KindBool,
	reflect.TypeFor[string]():        KindString,
	reflect.TypeFor[time.Time]():     KindTime,
	reflect.TypeFor[time.Duration](): KindDuration,
}

func (k KindEnum) IsNumber() bool {
	_, ok := numbers[k]

	return ok
}

func (k KindEnum) IsInteger() bool {
	n, ok := numbers[k]

	return ok && !n.float
}

func (k KindEnum) IsFloat() bool { return numbers[k].float }

// IsSigned reports signed integers only.
func (k KindEnum) IsSigned() bool {
	n := numbers[k]

	return n.signed && !n.float
}

func (k KindEnum) IsUnsigned() bool {
	n, ok := numbers[k]

	return ok && !n.signed
}

// Bits returns the size of a number kind. It panics for other kinds.
func (k KindEnum) Bits() int {
	n, ok := numbers[k]
	if !ok {
		panic("only number kinds have a size, requested for " + k.String())
	}

	return n.bits
}

// FromReflectType classifies rtype. Only unnamed builtin types count as
// numbers, bools and strings; named integer and string types are enums.
// Zero means rtype is not a primitive.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	if k, ok := kindByType[rtype]; ok {
		return k
	}

	if rtype.Implements(textMarshalerType) && reflect.PointerTo(rtype).Implements(textUnmarshalerType) {
		return KindText
	}

	// named integer or string
	switch rtype.Kind() {
	default:
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.String:
		return KindPrimitiveEnum
	}
}
