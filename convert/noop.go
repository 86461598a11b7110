package convert

import (
	"reflect"
	"time"
)

var timeType = reflect.TypeFor[time.Time]()

// NoopFactory passes values through unchanged when sharing them between the
// two representations is harmless: identical types holding immutable values,
// and immutable values stored into a plain interface.
type NoopFactory struct{}

func (NoopFactory) Matches(src, dst reflect.Type) bool {
	return src == dst || dst.Kind() == reflect.Interface
}

func (NoopFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	reg := r.Registry()
	if reg.isUnion(src) || reg.isUnion(dst) || !reg.isValueSafe(src) {
		return nil, false
	}

	if src == dst {
		return noop{typ: src}, true
	}

	if src.Kind() != reflect.Interface && src.Implements(dst) {
		return noop{typ: src, iface: dst}, true
	}

	return nil, false
}

type noop struct {
	typ   reflect.Type
	iface reflect.Type
}

func (n noop) Convert(_ *Scope, src reflect.Value) (reflect.Value, error) {
	dst := n.typ
	if n.iface != nil {
		dst = n.iface
	}

	if !src.IsValid() {
		return reflect.Value{}, failure(n.typ, dst, ErrMissingValue)
	}

	if src.Type() != n.typ {
		return reflect.Value{}, failure(src.Type(), dst, ErrTypeMismatch)
	}

	if n.iface != nil {
		return assign(src, n.iface), nil
	}

	return src, nil
}

// isValueSafe reports whether values of t can be shared by both
// representations without one observing mutations made through the other.
func (r *Registry) isValueSafe(t reflect.Type) bool {
	if t == timeType || r.isImmutable(t) {
		return true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Func, reflect.Chan:
		return true
	case reflect.Interface:
		// plain interfaces, any included, behave as opaque values
		return !r.isUnion(t)
	case reflect.Array:
		return r.isValueSafe(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !r.isValueSafe(t.Field(i).Type) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func (r *Registry) isImmutable(t reflect.Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.immutables[t]

	return ok
}
