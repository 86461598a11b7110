package match

import (
	"reflect"

	"crucible/internal/common"
)

// TypeCompatibility represents the level of compatibility between two types.
type TypeCompatibility int

const (
	// TypeIncompatible means the types cannot be converted.
	TypeIncompatible TypeCompatibility = iota
	// TypeNeedsTransform means conversion requires a registered converter.
	TypeNeedsTransform
	// TypeConvertible means reflect.Value.Convert accepts the pair.
	TypeConvertible
	// TypeAssignable means the source type can be directly assigned to the target.
	TypeAssignable
	// TypeIdentical means the types are exactly the same.
	TypeIdentical
)

const (
	VerdictIdentical      = "identical"
	VerdictAssignable     = "assignable"
	VerdictConvertible    = "convertible"
	VerdictNeedsTransform = "needs_transform"
	VerdictIncompatible   = "incompatible"
)

// String returns a human-readable name for the compatibility level.
func (c TypeCompatibility) String() string {
	switch c {
	case TypeIdentical:
		return VerdictIdentical
	case TypeAssignable:
		return VerdictAssignable
	case TypeConvertible:
		return VerdictConvertible
	case TypeNeedsTransform:
		return VerdictNeedsTransform
	case TypeIncompatible:
		return VerdictIncompatible
	default:
		return common.UnknownStr
	}
}

// Weight maps the level onto [0, 1] for candidate scoring.
func (c TypeCompatibility) Weight() float64 {
	switch c {
	case TypeIdentical:
		return 1.0
	case TypeAssignable:
		return 0.9
	case TypeConvertible:
		return 0.7
	case TypeNeedsTransform:
		return 0.4
	default:
		return 0
	}
}

// ScoreTypeCompatibility determines how a value of source type can reach
// the target type. Nil types are incompatible.
func ScoreTypeCompatibility(source, target reflect.Type) TypeCompatibility {
	switch {
	case source == nil || target == nil:
		return TypeIncompatible
	case source == target:
		return TypeIdentical
	case source.AssignableTo(target):
		return TypeAssignable
	case source.ConvertibleTo(target):
		return TypeConvertible
	case needsTransform(source, target):
		return TypeNeedsTransform
	default:
		return TypeIncompatible
	}
}

func needsTransform(source, target reflect.Type) bool {
	sk, tk := source.Kind(), target.Kind()

	switch {
	case sk == reflect.Pointer && tk != reflect.Pointer:
		return ScoreTypeCompatibility(source.Elem(), target) > TypeIncompatible
	case sk != reflect.Pointer && tk == reflect.Pointer:
		return ScoreTypeCompatibility(source, target.Elem()) > TypeIncompatible
	case isContainer(sk) && isContainer(tk):
		return true
	case sk == reflect.Struct && tk == reflect.Struct:
		return true
	case sk == reflect.Map && tk == reflect.Struct, sk == reflect.Struct && tk == reflect.Map:
		return true
	default:
		return false
	}
}

func isContainer(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

// IsNumericType returns true if the type's kind is an integer or float.
func IsNumericType(t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
