package convert

import (
	"reflect"

	"crucible/primitive"
)

// CoercionFactory applies the primitive coercions enabled on the registry
// with WithCoercions. With no categories enabled it never matches.
type CoercionFactory struct{}

func (CoercionFactory) Matches(src, dst reflect.Type) bool {
	return Dispatch(src, dst) == DispatcherPrimitive
}

func (CoercionFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	fn, _, ok := primitive.Lookup(r.Registry().Coercions(), src, dst)
	if !ok {
		return nil, false
	}

	return &coercion{src: src, dst: dst, fn: fn}, true
}

type coercion struct {
	src, dst reflect.Type
	fn       primitive.Func
}

func (c *coercion) Convert(_ *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		return reflect.Value{}, failure(c.src, c.dst, ErrMissingValue)
	}

	out, err := c.fn(src, c.dst)
	if err != nil {
		return reflect.Value{}, failure(c.src, c.dst, err)
	}

	return out, nil
}
