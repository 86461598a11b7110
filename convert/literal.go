package convert

import (
	"fmt"
	"reflect"
)

type literalSet struct {
	typ    reflect.Type
	values []reflect.Value
	index  map[any]struct{}
}

func (l *literalSet) allows(v reflect.Value) bool {
	_, ok := l.index[v.Interface()]

	return ok
}

// DeclareLiteral restricts the named type T to the given values. Conversions
// into T validate membership; conversions from another literal type resolve
// only when its values are a subset of T's.
func DeclareLiteral[T comparable](r *Registry, values ...T) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: %s", ErrNoValues, reflect.TypeFor[T]())
	}

	set := &literalSet{typ: reflect.TypeFor[T](), index: make(map[any]struct{}, len(values))}
	for _, v := range values {
		set.values = append(set.values, reflect.ValueOf(v))
		set.index[v] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.literals[set.typ] = set
	r.cache.Clear()

	return nil
}

// Literals returns the allowed values of a literal type in declaration order.
func (r *Registry) Literals(t reflect.Type) ([]any, bool) {
	set, ok := r.literalOf(t)
	if !ok {
		return nil, false
	}

	out := make([]any, len(set.values))
	for i, v := range set.values {
		out[i] = v.Interface()
	}

	return out, true
}

func (r *Registry) literalOf(t reflect.Type) (*literalSet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.literals[t]

	return set, ok
}

// LiteralFactory handles pairs involving a declared literal type.
type LiteralFactory struct{}

func (LiteralFactory) Matches(src, dst reflect.Type) bool {
	return src.Kind() != reflect.Pointer && dst.Kind() != reflect.Pointer
}

func (LiteralFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	reg := r.Registry()
	srcSet, srcLit := reg.literalOf(src)
	dstSet, dstLit := reg.literalOf(dst)

	switch {
	case dstLit && srcLit && src != dst:
		if !sameClass(src, dst) {
			return nil, false
		}

		for _, v := range srcSet.values {
			if !dstSet.allows(v.Convert(dst)) {
				return nil, false
			}
		}

		return &literal{src: src, dst: dst, set: dstSet}, true

	case dstLit:
		if !sameClass(src, dst) {
			return nil, false
		}

		return &literal{src: src, dst: dst, set: dstSet}, true

	case srcLit:
		if dst.Kind() == reflect.Interface {
			if !src.Implements(dst) || reg.isUnion(dst) {
				return nil, false
			}

			return &literal{src: src, dst: dst}, true
		}

		if !sameClass(src, dst) {
			return nil, false
		}

		return &literal{src: src, dst: dst}, true

	default:
		return nil, false
	}
}

// sameClass keeps literal conversions to same-shaped values, so that int to
// string rune conversion never applies.
func sameClass(src, dst reflect.Type) bool {
	if !src.ConvertibleTo(dst) {
		return false
	}

	return numeric(src.Kind()) == numeric(dst.Kind()) && (src.Kind() == reflect.String) == (dst.Kind() == reflect.String) &&
		(src.Kind() == reflect.Bool) == (dst.Kind() == reflect.Bool)
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

type literal struct {
	src, dst reflect.Type
	set      *literalSet
}

func (l *literal) Convert(_ *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		return reflect.Value{}, failure(l.src, l.dst, ErrMissingValue)
	}

	var out reflect.Value
	if l.dst.Kind() == reflect.Interface {
		out = assign(src, l.dst)
	} else {
		out = src.Convert(l.dst)
	}

	if l.set != nil && !l.set.allows(out) {
		return reflect.Value{}, failure(l.src, l.dst, fmt.Errorf("%w: %v", ErrNotAllowed, src.Interface()))
	}

	return out, nil
}
