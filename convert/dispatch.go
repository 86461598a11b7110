package convert

import (
	"reflect"

	"crucible/internal/common"
	"crucible/primitive"
)

// Dispatcher classifies a type pair by the shape of conversion it needs.
type Dispatcher int

const (
	DispatcherUnknown Dispatcher = iota
	DispatcherIdentical
	DispatcherPrimitive
	DispatcherPointer
	DispatcherInterface
	DispatcherSequence
	DispatcherMapping
	DispatcherRecord

	// DispatcherTotal is a constant that represents the total number of shapes defined
	DispatcherTotal = int(iota)
)

func (d Dispatcher) String() string {
	switch d {
	case DispatcherUnknown:
		return "unknown"
	case DispatcherIdentical:
		return "identical"
	case DispatcherPrimitive:
		return "primitive"
	case DispatcherPointer:
		return "pointer"
	case DispatcherInterface:
		return "interface"
	case DispatcherSequence:
		return "sequence"
	case DispatcherMapping:
		return "mapping"
	case DispatcherRecord:
		return "record"
	default:
		return common.UnknownStr
	}
}

// Dispatch classifies the pair. Pointers win over every other shape,
// interfaces over containers.
func Dispatch(src, dst reflect.Type) Dispatcher {
	if src == nil || dst == nil {
		return DispatcherUnknown
	}

	if src == dst && !isReference(src.Kind()) {
		return DispatcherIdentical
	}

	if src.Kind() == reflect.Pointer || dst.Kind() == reflect.Pointer {
		return DispatcherPointer
	}

	if src.Kind() == reflect.Interface || dst.Kind() == reflect.Interface {
		return DispatcherInterface
	}

	if isSequence(src) && isSequence(dst) {
		return DispatcherSequence
	}

	if src.Kind() == reflect.Map && dst.Kind() == reflect.Map {
		return DispatcherMapping
	}

	if isRecordPair(src, dst) {
		return DispatcherRecord
	}

	if primitive.FromReflectType(src) != 0 && primitive.FromReflectType(dst) != 0 {
		return DispatcherPrimitive
	}

	return DispatcherUnknown
}

func isReference(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// isSet reports whether t is map[T]struct{}.
func isSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0
}

// isSequence excludes text-encoded arrays such as uuid.UUID, which are
// scalars rather than containers.
func isSequence(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return true
	case reflect.Array:
		return primitive.FromReflectType(t) != primitive.KindText
	default:
		return isSet(t)
	}
}

func isStringMap(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

func isRecordPair(src, dst reflect.Type) bool {
	switch {
	case src.Kind() == reflect.Struct && dst.Kind() == reflect.Struct:
		return true
	case isStringMap(src) && dst.Kind() == reflect.Struct:
		return true
	case src.Kind() == reflect.Struct && isStringMap(dst):
		return true
	default:
		return false
	}
}
