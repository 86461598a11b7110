package convert

import (
	"fmt"
	"reflect"
)

// MappingFactory converts maps key by key and value by value into a new map.
type MappingFactory struct{}

func (MappingFactory) Matches(src, dst reflect.Type) bool {
	return src.Kind() == reflect.Map && dst.Kind() == reflect.Map
}

func (MappingFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	key, ok := r.Resolve(src.Key(), dst.Key())
	if !ok {
		return nil, false
	}

	val, ok := r.Resolve(src.Elem(), dst.Elem())
	if !ok {
		return nil, false
	}

	return &mapping{src: src, dst: dst, key: key, val: val}, true
}

type mapping struct {
	src, dst reflect.Type
	key, val Converter
}

func (m *mapping) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		return reflect.Value{}, failure(m.src, m.dst, ErrMissingValue)
	}

	if src.IsNil() {
		return reflect.Zero(m.dst), nil
	}

	out := reflect.MakeMapWithSize(m.dst, src.Len())

	iter := src.MapRange()
	for iter.Next() {
		seg := fmt.Sprintf("[%v]", iter.Key())

		k, err := m.key.Convert(scope, iter.Key())
		if err != nil {
			return reflect.Value{}, atPath(err, seg)
		}

		v, err := m.val.Convert(scope, iter.Value())
		if err != nil {
			return reflect.Value{}, atPath(err, seg)
		}

		out.SetMapIndex(k, v)
	}

	return out, nil
}
